package power

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"pilotmgr"

	"golang.org/x/sys/unix"
)

func TestPerform_DispatchesAction(t *testing.T) {
	tests := []struct {
		flag pilotmgr.ShutdownFlag
		want int
	}{
		{pilotmgr.DoReboot, unix.LINUX_REBOOT_CMD_RESTART},
		{pilotmgr.DoShutdown, unix.LINUX_REBOOT_CMD_POWER_OFF},
		{pilotmgr.DoUninstall, unix.LINUX_REBOOT_CMD_RESTART},
	}
	for _, tt := range tests {
		t.Run(string(tt.flag), func(t *testing.T) {
			marker := filepath.Join(t.TempDir(), "uninstall")
			var cmds []int
			c := NewController(true, marker, WithRebootFunc(func(cmd int) error {
				cmds = append(cmds, cmd)
				return nil
			}))
			if err := c.Perform(tt.flag); err != nil {
				t.Fatalf("Perform: %v", err)
			}
			if !slices.Equal(cmds, []int{tt.want}) {
				t.Fatalf("reboot cmds = %v, want [%d]", cmds, tt.want)
			}
			_, err := os.Stat(marker)
			if gotMarker := err == nil; gotMarker != (tt.flag == pilotmgr.DoUninstall) {
				t.Fatalf("uninstall marker present = %v", gotMarker)
			}
		})
	}
}

func TestPerform_DisabledDoesNothing(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "uninstall")
	c := NewController(false, marker, WithRebootFunc(func(int) error {
		t.Fatal("reboot should not be called")
		return nil
	}))
	for _, f := range pilotmgr.ShutdownFlags() {
		if err := c.Perform(f); err != nil {
			t.Fatalf("Perform(%s): %v", f, err)
		}
	}
	if _, err := os.Stat(marker); err == nil {
		t.Fatal("uninstall marker written while disabled")
	}
}

func TestPerform_UnknownFlag(t *testing.T) {
	c := NewController(true, "", WithRebootFunc(func(int) error { return nil }))
	if err := c.Perform("DoDance"); err == nil {
		t.Fatal("unknown flag should fail")
	}
}
