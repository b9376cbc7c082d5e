package daemon

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/provider"
)

func TestDispatcher_ShowAllConfig(t *testing.T) {
	store := NewStore()
	store.Put("10.0.0.1", entities.RawSwitchDump{
		Ports:    map[string]string{"Gi1/0/1": "vlan 10\n"},
		ACLs:     map[string]string{"GUEST": "deny ip any any\n"},
		PortACLs: map[string]string{"Gi1/0/1": "GUEST"},
	})
	d := NewDispatcher(store, &fakeRefresher{})

	reply := d.Handle(context.Background(), entities.Query{Type: entities.QueryShowAllConfig})
	require.Nil(t, reply.Error)
	require.NotNil(t, reply.Result)

	doc, err := provider.DecodeDocument(*reply.Result)
	require.NoError(t, err)
	assert.Equal(t, "vlan 10\n", doc["10.0.0.1"].Ports["Gi1/0/1"])
	assert.Equal(t, "GUEST", doc["10.0.0.1"].PortACLs["Gi1/0/1"])
}

func TestDispatcher_ShowAllConfigEmptyStore(t *testing.T) {
	d := NewDispatcher(NewStore(), &fakeRefresher{})

	reply := d.Handle(context.Background(), entities.Query{Type: entities.QueryShowAllConfig})
	require.NotNil(t, reply.Result)
	assert.JSONEq(t, `{}`, *reply.Result)
}

func TestDispatcher_ShowConfig(t *testing.T) {
	refresher := &fakeRefresher{dump: entities.RawSwitchDump{
		Ports: map[string]string{"Gi1/0/2": "shutdown\n"},
		ACLs:  map[string]string{},
	}}
	d := NewDispatcher(NewStore(), refresher)

	reply := d.Handle(context.Background(), entities.Query{Type: entities.QueryShowConfig, SwitchIP: "10.0.0.1"})
	require.Nil(t, reply.Error)
	dump, err := provider.DecodeSwitchDump(*reply.Result)
	require.NoError(t, err)
	assert.Equal(t, "shutdown\n", dump.Ports["Gi1/0/2"])
	assert.Equal(t, []string{"10.0.0.1"}, refresher.calls)
}

func TestDispatcher_Errors(t *testing.T) {
	tests := []struct {
		name      string
		query     entities.Query
		refreshed error
		code      string
	}{
		{
			name:  "unsupported type",
			query: entities.Query{Type: "show vlan"},
			code:  provider.CodeUnsupportedQuery,
		},
		{
			name:  "show config without switch",
			query: entities.Query{Type: entities.QueryShowConfig},
			code:  provider.CodeMalformedRequest,
		},
		{
			name:      "unknown switch",
			query:     entities.Query{Type: entities.QueryShowConfig, SwitchIP: "10.9.9.9"},
			refreshed: errors.Wrap(ErrUnknownSwitch, "10.9.9.9"),
			code:      provider.CodeUnknownSwitch,
		},
		{
			name:      "collection failure",
			query:     entities.Query{Type: entities.QueryShowConfig, SwitchIP: "10.0.0.1"},
			refreshed: errLinkDown,
			code:      provider.CodeInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(NewStore(), &fakeRefresher{err: tt.refreshed})

			reply := d.Handle(context.Background(), tt.query)
			assert.Nil(t, reply.Result)
			require.NotNil(t, reply.Error)
			assert.Equal(t, tt.code, reply.Error.Code)
			assert.NotEmpty(t, reply.Error.Message)
		})
	}
}

func TestDaemonHandle_ObservesRequests(t *testing.T) {
	observer := &recordingObserver{}
	d := New(testInventory("ios", "10.0.0.1"), observer)

	d.Handle(context.Background(), entities.Query{Type: entities.QueryShowAllConfig})
	d.Handle(context.Background(), entities.Query{Type: "show vlan"})

	assert.Equal(t, 1, observer.requests[entities.QueryShowAllConfig])
	assert.Equal(t, 0, observer.failures[entities.QueryShowAllConfig])
	assert.Equal(t, 1, observer.failures["show vlan"])
}

func TestDaemonHandle_NilObserver(t *testing.T) {
	d := New(testInventory("ios", "10.0.0.1"), nil)

	reply := d.Handle(context.Background(), entities.Query{Type: entities.QueryShowAllConfig})
	assert.NotNil(t, reply.Result)
}

func TestDaemonRespond_MalformedRequest(t *testing.T) {
	d := New(testInventory("ios", "10.0.0.1"), nil)

	body := provider.Respond(context.Background(), d, []byte(`{"type":`))
	reply, err := provider.DecodeReply(body)
	require.NoError(t, err)
	require.NotNil(t, reply.Error)
	assert.Equal(t, provider.CodeMalformedRequest, reply.Error.Code)
}
