package provider

import "testing"

func TestIsPhysicalDisk(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"sda", true},
		{"sda1", false},
		{"nvme0n1", true},
		{"nvme0n1p2", false},
		{"vda", true},
		{"loop0", false},
		{"ram0", false},
		{"zram0", false},
		{"dm-0", false},
		{"md127", false},
		{"sr0", false},
	}
	for _, tc := range cases {
		if got := isPhysicalDisk(tc.name); got != tc.want {
			t.Errorf("isPhysicalDisk(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
