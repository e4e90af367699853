package protocol

import (
	"errors"
	"testing"
)

func TestParseMAC(t *testing.T) {
	tests := []struct {
		in      string
		want    MAC
		wantErr bool
	}{
		{"aa:bb:cc:dd:ee:ff", MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, false},
		{"34:AB:95:FA:3A:6C", MAC{0x34, 0xab, 0x95, 0xfa, 0x3a, 0x6c}, false},
		{"1:2:3:4:5:6", MAC{1, 2, 3, 4, 5, 6}, false},
		{" aa:bb:cc:dd:ee:ff ", MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, false},
		{"", MAC{}, true},
		{"aa:bb:cc:dd:ee", MAC{}, true},
		{"aa:bb:cc:dd:ee:ff:00", MAC{}, true},
		{"aa:bb:cc:dd:ee:gg", MAC{}, true},
		{"aa:bb:cc:dd:ee:", MAC{}, true},
		{"aaa:bb:cc:dd:ee:ff", MAC{}, true},
		{"aa-bb-cc-dd-ee-ff", MAC{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMAC(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMAC) {
					t.Fatalf("ParseMAC(%q) error = %v, want ErrInvalidMAC", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMAC(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMAC(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMACFormatting(t *testing.T) {
	m := MustParseMAC("34:AB:95:FA:3A:6C")
	if got := m.String(); got != "34:ab:95:fa:3a:6c" {
		t.Errorf("String() = %s", got)
	}
	if got := m.Compact(); got != "34ab95fa3a6c" {
		t.Errorf("Compact() = %s", got)
	}
	if m.IsZero() || !(MAC{}).IsZero() {
		t.Error("IsZero misreports")
	}
}

func TestDeriveMAC(t *testing.T) {
	a := DeriveMAC("camnode-01")
	if a != DeriveMAC("camnode-01") {
		t.Fatal("DeriveMAC is not stable")
	}
	if a == DeriveMAC("camnode-02") {
		t.Fatal("different seeds derived the same address")
	}
	if a[0]&0x02 == 0 || a[0]&0x01 != 0 {
		t.Fatalf("%s is not a locally administered unicast address", a)
	}
}
