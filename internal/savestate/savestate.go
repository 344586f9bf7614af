// Package savestate persists and restores an SPU's complete state, using
// encoding/gob for the binary format — the teacher's own mechanism
// (internal/emulator/savestate.go used exactly this, for the same reason: a
// struct-shaped snapshot with no external schema needed) — and additionally
// rendering the same snapshot as YAML via gopkg.in/yaml.v3 for human
// inspection, a separate and additive debugging aid, not a replacement for
// the binary format.
package savestate

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"nitrospu/internal/spu"
)

// Source is the subset of internal/spu.SPU the package saves and restores.
type Source interface {
	Snapshot() spu.State
	Restore(spu.State)
}

// Save encodes src's current state to path using encoding/gob.
func Save(path string, src Source) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(src.Snapshot()); err != nil {
		return fmt.Errorf("savestate: encode: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("savestate: write %s: %w", path, err)
	}
	return nil
}

// Load decodes the state at path and installs it into dst.
func Load(path string, dst Source) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("savestate: read %s: %w", path, err)
	}
	var st spu.State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return fmt.Errorf("savestate: decode %s: %w", path, err)
	}
	dst.Restore(st)
	return nil
}

// DumpYAML renders src's current state as YAML to path, for debugging.
// Voice ADPCM history and raw RAM contents are included like every other
// field named in the state struct; there is no redaction or truncation.
func DumpYAML(path string, src Source) error {
	data, err := yaml.Marshal(src.Snapshot())
	if err != nil {
		return fmt.Errorf("savestate: marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("savestate: write %s: %w", path, err)
	}
	return nil
}
