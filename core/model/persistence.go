package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

// SaveModel はモデルをファイルに保存する
//
// パラメータ:
//   - model: 保存するモデル（gob でエンコード可能な値）
//   - filename: 保存先のファイルパス
//
// 戻り値:
//   - error: 保存に失敗した場合の IOError
//
// 使用例:
//
//	m, _ := gbt.NewTrainer(params).Fit(ds)
//	err := model.SaveModel(m, "model.gob")
func SaveModel(model interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.NewIOError("SaveModel", filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("SaveModel", filename, cerr)
		}
	}()

	if err := SaveModelToWriter(model, file); err != nil {
		return errors.Wrapf(err, "saving to %s", filename)
	}
	return nil
}

// LoadModel はファイルからモデルを読み込む
//
// パラメータ:
//   - model: 読み込み先のモデル（ポインタ）
//   - filename: 読み込み元のファイルパス
//
// 戻り値:
//   - error: 読み込みに失敗した場合のエラー
//
// 使用例:
//
//	var m gbt.Model
//	err := model.LoadModel(&m, "model.gob")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.NewIOError("LoadModel", filename, err)
	}
	defer file.Close()

	if err := LoadModelFromReader(model, file); err != nil {
		return errors.Wrapf(err, "loading from %s", filename)
	}
	return nil
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(model); err != nil {
		return errors.NewIOError("SaveModelToWriter", "", err)
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む。
// デコードに失敗した場合（破損・切り詰められたデータ）は FormatError を返す。
func LoadModelFromReader(model interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(model); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return errors.NewFormatError("model", 0, 0, "truncated model data")
		}
		return errors.NewFormatErrorf("model", 0, 0, "cannot decode model: %v", err)
	}
	return nil
}
