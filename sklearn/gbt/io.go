package gbt

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	coremodel "github.com/YuminosukeSato/scigo-gbt/core/model"
	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
	"github.com/YuminosukeSato/scigo-gbt/pkg/log"
)

// modelFormatVersion is bumped whenever the persisted layout changes.
const modelFormatVersion = 1

// modelData has Model's fields but none of its methods, so encoding it does
// not recurse into MarshalBinary.
type modelData Model

type modelEnvelope struct {
	Version int        `json:"version"`
	Model   *modelData `json:"model"`
}

func (m *Model) envelope() modelEnvelope {
	return modelEnvelope{Version: modelFormatVersion, Model: (*modelData)(m)}
}

func (env modelEnvelope) unwrap(source string) (*Model, error) {
	if env.Version != modelFormatVersion {
		return nil, errors.NewFormatErrorf(source, 0, 0, "unsupported model format version %d", env.Version)
	}
	if env.Model == nil {
		return nil, errors.NewFormatError(source, 0, 0, "missing model body")
	}
	m := (*Model)(env.Model)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// MarshalBinary implements encoding.BinaryMarshaler with a versioned gob
// encoding.
func (m *Model) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The decoded model
// is validated before it replaces the receiver.
func (m *Model) UnmarshalBinary(data []byte) error {
	loaded, err := Load(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*m = *loaded
	return nil
}

// Save writes the model in binary form.
func (m *Model) Save(w io.Writer) error {
	return coremodel.SaveModelToWriter(m.envelope(), w)
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Model, error) {
	var env modelEnvelope
	if err := coremodel.LoadModelFromReader(&env, r); err != nil {
		return nil, err
	}
	return env.unwrap("model")
}

// SaveToFile writes the model in binary form to path.
func (m *Model) SaveToFile(path string) error {
	if err := coremodel.SaveModel(m.envelope(), path); err != nil {
		return err
	}
	log.GetLoggerWithName("gbt.io").Info("Model saved",
		log.OperationKey, log.OperationSave,
		log.SourceKey, path,
		log.TreesKey, len(m.Trees),
	)
	return nil
}

// LoadFromFile reads a model written by SaveToFile.
func LoadFromFile(path string) (*Model, error) {
	var env modelEnvelope
	if err := coremodel.LoadModel(&env, path); err != nil {
		return nil, err
	}
	m, err := env.unwrap(path)
	if err != nil {
		return nil, err
	}
	log.GetLoggerWithName("gbt.io").Info("Model loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, path,
		log.TreesKey, len(m.Trees),
	)
	return m, nil
}

// WriteJSON writes the model as indented JSON.
func (m *Model) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(m.envelope(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding model as JSON")
	}
	if _, err := w.Write(data); err != nil {
		return errors.NewIOError("WriteJSON", "", err)
	}
	return nil
}

// ReadJSON reads a model written by WriteJSON.
func ReadJSON(r io.Reader) (*Model, error) {
	var env modelEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, errors.NewFormatErrorf("model.json", 0, 0, "invalid JSON: %v", err)
	}
	return env.unwrap("model.json")
}

// SaveJSONFile writes the model as JSON to path.
func (m *Model) SaveJSONFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("SaveJSONFile", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("SaveJSONFile", path, cerr)
		}
	}()
	return m.WriteJSON(f)
}

// LoadJSONFile reads a model written by SaveJSONFile.
func LoadJSONFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("LoadJSONFile", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
