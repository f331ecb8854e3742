package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// argFunc extracts one tool argument from the request. A returned error is a
// caller mistake and maps to 400.
type argFunc func(r *http.Request, args map[string]any) error

func pathArg(name string) argFunc {
	return func(r *http.Request, args map[string]any) error {
		value := r.PathValue(name)
		if value == "" {
			return fmt.Errorf("missing %s", name)
		}
		args[name] = value
		return nil
	}
}

func queryArg(argName, param string) argFunc {
	return func(r *http.Request, args map[string]any) error {
		value := r.URL.Query().Get(param)
		if value == "" {
			return fmt.Errorf("missing required query parameter %q", param)
		}
		args[argName] = value
		return nil
	}
}

func limitArg() argFunc {
	return func(r *http.Request, args map[string]any) error {
		raw := r.URL.Query().Get("limit")
		if raw == "" {
			return nil
		}
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 50 {
			return fmt.Errorf("limit must be an integer between 1 and 50")
		}
		args["limit"] = limit
		return nil
	}
}

// directTool adapts one registry operation into a GET endpoint. The direct
// path shares the registry's cache-backed handlers with the assistant; a
// query failure is surfaced verbatim, never hidden.
func (s *Server) directTool(toolName string, extract ...argFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()

		args := map[string]any{}
		for _, fn := range extract {
			if err := fn(r, args); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		if err := seasonArg(r, args); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		encoded, err := json.Marshal(args)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		result := s.registry.Dispatch(ctx, toolName, string(encoded))
		if result.IsError() {
			writeError(w, http.StatusInternalServerError, result.ErrorMessage())
			return
		}

		status := http.StatusOK
		if payload, ok := result.Data().(map[string]any); ok {
			if found, present := payload["found"].(bool); present && !found {
				status = http.StatusNotFound
			}
		}
		writeJSON(w, status, result.Data())
	}
}

func seasonArg(r *http.Request, args map[string]any) error {
	raw := r.URL.Query().Get("season")
	if raw == "" {
		return nil
	}
	seasonYear, err := strconv.Atoi(raw)
	if err != nil || seasonYear < 2003 || seasonYear > 2030 {
		return fmt.Errorf("season must be a year between 2003 and 2030")
	}
	args["season"] = seasonYear
	return nil
}
