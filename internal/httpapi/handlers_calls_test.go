package httpapi

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestBatchCallRequestAcceptsContactObjects(t *testing.T) {
	body := `{"agentId":"agent-1","contacts":[
		{"id":"c1","name":"Ada","phoneNumber":"+15550000001"},
		{"id":"c2","name":"Grace","phoneNumber":"+15550000002"}
	]}`

	var req batchCallRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if want := []string{"c1", "c2"}; !reflect.DeepEqual(req.contactIDList(), want) {
		t.Fatalf("contactIDList() = %v, want %v", req.contactIDList(), want)
	}
}

func TestBatchCallRequestAcceptsBareIDs(t *testing.T) {
	body := `{"agentId":"agent-1","contactIds":["c1","c2"]}`

	var req batchCallRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if want := []string{"c1", "c2"}; !reflect.DeepEqual(req.contactIDList(), want) {
		t.Fatalf("contactIDList() = %v, want %v", req.contactIDList(), want)
	}
}
