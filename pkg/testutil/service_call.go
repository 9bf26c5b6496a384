package testutil

import "time"

// ServiceCall records one call_service request handled by the mock server
type ServiceCall struct {
	Timestamp   time.Time
	Domain      string
	Service     string
	ServiceData map[string]interface{}
}

// EntityID returns the call's entity_id service data, or "" when absent
func (c ServiceCall) EntityID() string {
	id, _ := c.ServiceData["entity_id"].(string)
	return id
}

// FilterCalls returns the calls matching domain and service, oldest first
func FilterCalls(calls []ServiceCall, domain, service string) []ServiceCall {
	var matched []ServiceCall
	for _, call := range calls {
		if call.Domain == domain && call.Service == service {
			matched = append(matched, call)
		}
	}
	return matched
}

// LastCall returns the most recent call matching domain and service that
// targets entityID. An empty entityID matches any target. Returns nil when
// nothing matches.
func LastCall(calls []ServiceCall, domain, service, entityID string) *ServiceCall {
	for i := len(calls) - 1; i >= 0; i-- {
		call := calls[i]
		if call.Domain != domain || call.Service != service {
			continue
		}
		if entityID == "" || call.EntityID() == entityID {
			return &call
		}
	}
	return nil
}
