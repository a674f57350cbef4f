package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bnb-chain/keys-hub/db"
	"github.com/bnb-chain/keys-hub/logging"
	"github.com/bnb-chain/keys-hub/service"
	"github.com/bnb-chain/keys-hub/util"
)

const (
	ParamModuleId   = "module_id"
	ParamOperatorId = "operator_id"
	ParamPubkey     = "pubkey"

	queryUsed          = "used"
	queryOperatorIndex = "operatorIndex"
)

type findKeysRequest struct {
	Pubkeys []string `json:"pubkeys"`
}

func HandleGetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := service.RegistrySvc.GetStatus(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func HandleListModules() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modules, meta, err := service.RegistrySvc.ListModules(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, modules, meta)
	}
}

func HandleGetModule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		module, meta, err := service.RegistrySvc.GetModule(r.Context(), mux.Vars(r)[ParamModuleId])
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, module, meta)
	}
}

func HandleGetModuleOperators() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operators, meta, err := service.RegistrySvc.GetOperators(r.Context(), mux.Vars(r)[ParamModuleId])
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, operators, meta)
	}
}

func HandleGetAllOperators() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operators, meta, err := service.RegistrySvc.GetAllOperators(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, operators, meta)
	}
}

func HandleGetModuleOperator() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		index, err := util.StringToUint64(vars[ParamOperatorId])
		if err != nil {
			writeError(w, service.BadRequestErr.Enrich(fmt.Sprintf("invalid operator id %q", vars[ParamOperatorId])))
			return
		}
		operator, module, meta, err := service.RegistrySvc.GetOperator(r.Context(), vars[ParamModuleId], index)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, map[string]interface{}{"operator": operator, "module": module}, meta)
	}
}

func HandleGetModuleKeys() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseKeyFilter(r)
		if err != nil {
			writeError(w, err)
			return
		}
		stream := newKeysStreamWriter(w, false)
		err = service.RegistrySvc.StreamKeys(r.Context(), mux.Vars(r)[ParamModuleId], filter, stream)
		finishStream(w, stream, err)
	}
}

func HandleGetAllKeys() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseKeyFilter(r)
		if err != nil {
			writeError(w, err)
			return
		}
		stream := newKeysStreamWriter(w, true)
		err = service.RegistrySvc.StreamAllKeys(r.Context(), filter, stream)
		finishStream(w, stream, err)
	}
}

func HandleFindModuleKeys() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req findKeysRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, service.BadRequestWithError(err))
			return
		}
		if len(req.Pubkeys) == 0 {
			writeError(w, service.BadRequestErr.Enrich("pubkeys should not be empty"))
			return
		}
		keys, meta, err := service.RegistrySvc.GetKeysByPubKeys(r.Context(), mux.Vars(r)[ParamModuleId], req.Pubkeys)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, keys, meta)
	}
}

func HandleGetKeysByPubkey() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, meta, err := service.RegistrySvc.GetKeysByPubkey(r.Context(), mux.Vars(r)[ParamPubkey])
		if err != nil {
			writeError(w, err)
			return
		}
		if len(keys) == 0 {
			writeError(w, service.NotFoundErr.Enrich("pubkey is not registered in any module"))
			return
		}
		writeData(w, keys, meta)
	}
}

func parseKeyFilter(r *http.Request) (db.KeyFilter, error) {
	filter := db.KeyFilter{}
	query := r.URL.Query()
	if raw := query.Get(queryUsed); raw != "" {
		used, err := util.StringToBool(raw)
		if err != nil {
			return filter, service.BadRequestErr.Enrich(fmt.Sprintf("invalid %s %q", queryUsed, raw))
		}
		filter.Used = &used
	}
	if raw := query.Get(queryOperatorIndex); raw != "" {
		index, err := util.StringToUint64(raw)
		if err != nil {
			return filter, service.BadRequestErr.Enrich(fmt.Sprintf("invalid %s %q", queryOperatorIndex, raw))
		}
		filter.OperatorIndex = &index
	}
	return filter, nil
}

// finishStream closes a streamed document, or reports err if nothing has been written yet.
// Once the body has started the status cannot change, so a late error truncates the document.
func finishStream(w http.ResponseWriter, stream *keysStreamWriter, err error) {
	if err != nil {
		if !stream.started {
			writeError(w, err)
			return
		}
		logging.Logger.Errorf("keys stream aborted, err=%s", err.Error())
		return
	}
	if err := stream.finish(); err != nil {
		logging.Logger.Errorf("failed to finish keys stream, err=%s", err.Error())
	}
}
