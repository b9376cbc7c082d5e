package services

import (
	"errors"
	"reflect"
	"testing"

	"github.com/carlosrabelo/cscc/domain/entities"
)

func strPtr(s string) *string { return &s }

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", []string{""}},
		{"single terminated", "vlan 10\n", []string{"vlan 10"}},
		{"blank tail", "description x\n\n", []string{"description x", ""}},
		{"crlf", "vlan 10\r\nshutdown\r\n", []string{"vlan 10", "shutdown"}},
		{"unterminated", "a\nb", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLines(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTrimTrailingBlank(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, nil},
		{"only blank", []string{""}, []string{}},
		{"one blank removed", []string{"a", "", ""}, []string{"a", ""}},
		{"interior kept", []string{"a", "", "b"}, []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimTrailingBlank(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("TrimTrailingBlank(%q) = %q, want %q", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("TrimTrailingBlank(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractDescription(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  *string
	}{
		{"first wins", []string{"description first", "description second"}, strPtr("first")},
		{"indented", []string{" description uplink to core"}, strPtr("uplink to core")},
		{"not a directive", []string{"no description here"}, nil},
		{"bare keyword", []string{"description"}, strPtr("")},
		{"keeps rest of line", []string{"description a description b"}, strPtr("a description b")},
		{"none", []string{"vlan 10"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDescription(tt.lines)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractDescription(%q) = %v, want %v", tt.lines, deref(got), deref(tt.want))
			}
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestExtractPort_TrailingBlankArtifact(t *testing.T) {
	draft := ExtractPort("description x\n\n")
	if !reflect.DeepEqual(draft.Config, []string{"description x"}) {
		t.Errorf("Config = %q, want [\"description x\"]", draft.Config)
	}
	if deref(draft.Description) != "x" {
		t.Errorf("Description = %q, want %q", deref(draft.Description), "x")
	}
}

func TestExtractPort_EmptyText(t *testing.T) {
	draft := ExtractPort("")
	if len(draft.Config) != 0 {
		t.Errorf("Config = %q, want empty", draft.Config)
	}
	if draft.Description != nil {
		t.Errorf("Description = %q, want nil", *draft.Description)
	}
}

func TestExtractPort_LaterDescriptionStaysInConfig(t *testing.T) {
	draft := ExtractPort("description a\ndescription b\n")
	want := []string{"description a", "description b"}
	if !reflect.DeepEqual(draft.Config, want) {
		t.Errorf("Config = %q, want %q", draft.Config, want)
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		raw     string
		wantErr bool
	}{
		{"valid", "Gi1/0/1", "vlan 10\n", false},
		{"empty name", "", "vlan 10\n", true},
		{"blank name", "   ", "vlan 10\n", true},
		{"invalid utf8", "Gi1/0/2", "description \xff\xfe\n", true},
		{"nul byte", "Gi1/0/3", "vlan 1\x000\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePort(tt.port, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePort() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, entities.ErrPortParse) {
				t.Errorf("ValidatePort() error = %v, want ErrPortParse", err)
			}
		})
	}
}

func TestExtractPorts_OmitsInvalid(t *testing.T) {
	dump := entities.RawSwitchDump{
		Ports: map[string]string{
			"Gi1/0/1": "description ok\n",
			"Gi1/0/2": "vlan \x00\n",
			"":        "vlan 20\n",
		},
	}

	drafts, perrs := ExtractPorts("10.0.0.1", dump)

	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	if _, ok := drafts["Gi1/0/1"]; !ok {
		t.Error("expected Gi1/0/1 to be extracted")
	}
	if len(perrs) != 2 {
		t.Fatalf("expected 2 port errors, got %d", len(perrs))
	}
	// port-name order
	if perrs[0].Port != "" || perrs[1].Port != "Gi1/0/2" {
		t.Errorf("unexpected error order: %v", perrs)
	}
	for _, perr := range perrs {
		if perr.Switch != "10.0.0.1" {
			t.Errorf("PortError.Switch = %q, want 10.0.0.1", perr.Switch)
		}
		if !errors.Is(perr, entities.ErrPortParse) {
			t.Errorf("PortError %v does not wrap ErrPortParse", perr)
		}
	}
}
