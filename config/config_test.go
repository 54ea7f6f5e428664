package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingGivesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Metro.IntervalMS != 500 || cfg.Engine.Channel != 1 {
		t.Errorf("defaults = %+v", cfg)
	}
	if len(cfg.AutoConnectControllers()) != 1 {
		t.Errorf("controllers = %+v", cfg.Controllers)
	}
}

func TestSaveLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Engine = EngineConfig{PortName: "IAC Driver Bus 1", Channel: 3}
	cfg.Metro = MetroConfig{IntervalMS: 125, Active: true}
	cfg.UI.LastScene = "jam"
	cfg.AddController(ControllerConfig{PortName: "KeyStep", Type: ControllerKeyboard, AutoConnect: true, BaseNote: 48})
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	got, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.Engine != cfg.Engine || got.Metro != cfg.Metro || got.UI != cfg.UI {
		t.Errorf("loaded %+v, want %+v", got, cfg)
	}
	if got.BaseNote("KeyStep") != 48 || got.BaseNote("other") != DefaultBaseNote {
		t.Errorf("base notes = %d, %d", got.BaseNote("KeyStep"), got.BaseNote("other"))
	}
	if n := len(got.AutoConnectControllers()); n != 2 {
		t.Errorf("auto-connect controllers = %d", n)
	}
}

func TestLoadNormalizes(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "go-monokit")
	os.MkdirAll(dir, 0755)
	data := `{"engine":{"channel":40},"metro":{"intervalMs":2},"controllers":[{"portName":"Keys","type":"keyboard"}]}`
	os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Channel != 1 {
		t.Errorf("channel = %d", cfg.Engine.Channel)
	}
	if cfg.Metro.IntervalMS != 10 {
		t.Errorf("interval = %d", cfg.Metro.IntervalMS)
	}
	if len(cfg.Controllers) != 1 || cfg.Controllers[0].BaseNote != DefaultBaseNote {
		t.Errorf("controllers = %+v", cfg.Controllers)
	}
}

func TestLoadDamaged(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "go-monokit")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0644)

	if _, err := Load(); err == nil {
		t.Fatal("expected an error")
	}
}
