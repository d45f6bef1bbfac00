package registry

import "testing"

func TestInstanceKey(t *testing.T) {
	if got := InstanceKey("f2v2f-service", "node-1"); got != "/services/f2v2f-service/node-1" {
		t.Fatalf("key = %s", got)
	}
}
