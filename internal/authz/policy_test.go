package authz

import "testing"

func TestCanMutate(t *testing.T) {
	tests := []struct {
		name    string
		actorID int64
		ownerID int64
		role    string
		want    bool
	}{
		{name: "owner", actorID: 7, ownerID: 7, role: "user", want: true},
		{name: "non-owner", actorID: 9, ownerID: 7, role: "user", want: false},
		{name: "admin non-owner", actorID: 9, ownerID: 7, role: "admin", want: true},
		{name: "admin owner", actorID: 7, ownerID: 7, role: "admin", want: true},
		{name: "empty role non-owner", actorID: 9, ownerID: 7, role: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.actorID, tt.ownerID, tt.role); got != tt.want {
				t.Fatalf("CanMutate(%d, %d, %q) = %v, want %v", tt.actorID, tt.ownerID, tt.role, got, tt.want)
			}
		})
	}
}
