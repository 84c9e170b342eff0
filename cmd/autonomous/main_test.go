package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/frcrobotics/autonomy/logging"
)

const quietConfig = `{
	"robot_side": "right",
	"vision": {"disabled": true},
	"diagnostics": {"disabled": true}
}`

func TestMainWithArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autonomous.json")
	test.That(t, os.WriteFile(path, []byte(quietConfig), 0o600), test.ShouldBeNil)

	for _, tc := range []struct {
		Name string
		Args []string
		Err  string
	}{
		{"match", []string{"-config", path, "-game-message", "RLR", "-duration", "2s"}, ""},
		{"side override", []string{"-config", path, "-side", "center", "-duration", "1s", "-debug"}, ""},
		{"bad duration", []string{"-config", path, "-duration", "soon"}, "invalid duration"},
		{"bad side", []string{"-config", path, "-side", "up"}, "up"},
		{"watch without config", []string{"-watch"}, "-config"},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "nope.json")}, "nope.json"},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			err := mainWithArgs(context.Background(), append([]string{"autonomous"}, tc.Args...), logging.NewTestLogger(t))
			if tc.Err == "" {
				test.That(t, err, test.ShouldBeNil)
				return
			}
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.Err)
		})
	}
}

func TestApplyArgs(t *testing.T) {
	cfg, err := readConfig(context.Background(), Arguments{Side: "l", Debug: true}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.RobotSide.String(), test.ShouldEqual, "left")
	test.That(t, cfg.LogLevel, test.ShouldEqual, logging.DEBUG)
}
