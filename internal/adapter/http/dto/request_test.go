package dto

import "testing"

func TestCommandRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CommandRequest
		wantErr bool
	}{
		{name: "valid", req: CommandRequest{CallerID: "123", Text: "!balance"}},
		{name: "missing caller", req: CommandRequest{Text: "!balance"}, wantErr: true},
		{name: "blank caller", req: CommandRequest{CallerID: "  ", Text: "!balance"}, wantErr: true},
		{name: "missing text", req: CommandRequest{CallerID: "123"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
