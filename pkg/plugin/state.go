package plugin

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/justyntemme/plugkit/pkg/framework/state"
)

// Snapshot captures the parameter values and the plugin's extra state.
func (w *Wrapper) Snapshot() (state.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.Phase() == PhaseDestroyed {
		return state.Document{}, w.violation("save state", "")
	}
	extra, err := w.plugin.SaveState()
	if err != nil {
		return state.Document{}, fmt.Errorf("save state of %s: %w", w.info.ID, err)
	}
	return state.Capture(w.store, w.info.ID, extra), nil
}

// SaveState encodes a snapshot as JSON.
func (w *Wrapper) SaveState() ([]byte, error) {
	doc, err := w.Snapshot()
	if err != nil {
		return nil, err
	}
	return state.Encode(doc)
}

// Restore applies a decoded session. Parameters the session does not mention
// go back to their defaults. Problems with single values or with the extra
// state are recorded in the report and never abort the restore.
//
// An Activated instance is deactivated for the restore and activated again
// without ramping to the restored values.
func (w *Wrapper) Restore(doc state.Document) (state.LoadReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.Phase() == PhaseDestroyed {
		return state.LoadReport{}, w.violation("load state", "")
	}
	if doc.Plugin != "" && doc.Plugin != w.info.ID {
		w.log.Warn("session was saved by another plugin", zap.String("saved_by", doc.Plugin))
	}

	active := w.Phase() == PhaseActivated
	if active {
		if err := w.deactivateLocked(); err != nil {
			return state.LoadReport{}, err
		}
	}

	w.store.ResetToDefaults()
	rep := state.Apply(w.store, doc)
	if err := w.plugin.LoadState(doc.Extra); err != nil {
		rep.Errors = append(rep.Errors, &state.SerializationError{Key: "extra", Reason: err.Error()})
	}
	w.snapOnActivate = true

	if len(rep.Unknown) > 0 || len(rep.Invalid) > 0 || len(rep.Errors) > 0 {
		w.log.Info("session restored with problems",
			zap.Int("applied", rep.Applied),
			zap.Strings("unknown", rep.Unknown),
			zap.Strings("invalid", rep.Invalid),
			zap.Error(rep.Err()),
		)
	}

	if active {
		if err := w.activateLocked(); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// LoadState decodes data in any supported format and restores it.
func (w *Wrapper) LoadState(data []byte) (state.LoadReport, error) {
	doc, rep := state.Unmarshal(data, state.Detect(data))
	applied, err := w.Restore(doc)
	rep.Merge(applied)
	return rep, err
}
