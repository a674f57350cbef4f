package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bnb-chain/keys-hub/entity"
	"github.com/bnb-chain/keys-hub/service"
)

const flushEveryKeys = 1000

// keysStreamWriter renders streamed keys as one JSON document without buffering it:
// {"meta":{...},"data":{"module":{...},"keys":[...]}} for one module, or an array of such
// objects under data when every module is streamed.
type keysStreamWriter struct {
	w         http.ResponseWriter
	multi     bool
	started   bool
	modules   int
	keys      int
	unflushed int
}

var _ service.KeysWriter = (*keysStreamWriter)(nil)

func newKeysStreamWriter(w http.ResponseWriter, multi bool) *keysStreamWriter {
	return &keysStreamWriter{w: w, multi: multi}
}

func (s *keysStreamWriter) WriteMeta(meta *entity.ElBlockSnapshot) error {
	bz, err := json.Marshal(&entity.Meta{ElBlockSnapshot: meta})
	if err != nil {
		return err
	}
	s.w.Header().Set("Content-Type", "application/json")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
	prefix := `{"meta":` + string(bz) + `,"data":`
	if s.multi {
		prefix += "["
	}
	return s.write(prefix)
}

func (s *keysStreamWriter) BeginModule(module *entity.Module) error {
	bz, err := json.Marshal(module)
	if err != nil {
		return err
	}
	prefix := ""
	if s.modules > 0 {
		prefix = ","
	}
	s.keys = 0
	return s.write(prefix + `{"module":` + string(bz) + `,"keys":[`)
}

func (s *keysStreamWriter) WriteKey(key *entity.Key) error {
	bz, err := json.Marshal(key)
	if err != nil {
		return err
	}
	if s.keys > 0 {
		bz = append([]byte{','}, bz...)
	}
	s.keys++
	if _, err := s.w.Write(bz); err != nil {
		return err
	}
	s.unflushed++
	if s.unflushed >= flushEveryKeys {
		s.flush()
	}
	return nil
}

func (s *keysStreamWriter) EndModule() error {
	s.modules++
	return s.write("]}")
}

// finish closes the document once every module has been written.
func (s *keysStreamWriter) finish() error {
	suffix := "}"
	if s.multi {
		suffix = "]}"
	}
	if err := s.write(suffix); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *keysStreamWriter) write(str string) error {
	_, err := s.w.Write([]byte(str))
	return err
}

func (s *keysStreamWriter) flush() {
	s.unflushed = 0
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
