package cmd

import (
	"errors"

	"github.com/maprix/maprix/internal/apiclient"
	"github.com/maprix/maprix/internal/checklist"
	"github.com/maprix/maprix/internal/gate"
	"github.com/maprix/maprix/internal/geo"
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/output"
	"github.com/maprix/maprix/internal/pipeline"
	"github.com/spf13/cobra"
)

// errorCode maps a command failure to the code used in --json error output.
func errorCode(err error) string {
	var verr *checklist.ValidationError
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, operator.ErrNoSession):
		return output.ErrCodeNoSession
	case errors.Is(err, gate.ErrBlocked):
		return output.ErrCodeBlocked
	case errors.Is(err, pipeline.ErrSyncInProgress):
		return output.ErrCodeSyncInProgress
	case errors.Is(err, apiclient.ErrNotFound):
		return output.ErrCodeNotFound
	case errors.As(err, &verr),
		errors.Is(err, operator.ErrMissingIdentity),
		errors.Is(err, operator.ErrNoChecklist),
		errors.Is(err, geo.ErrOutOfRange):
		return output.ErrCodeInvalidInput
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return output.ErrCodeInvalidInput
		}
		return output.ErrCodeServerError
	case errors.Is(err, geo.ErrTimeout), errors.Is(err, geo.ErrUnavailable):
		return output.ErrCodeLocation
	}
	return output.ErrCodeStorageError
}

// reportError prints a failed command's error once, styled or as JSON.
func reportError(cmd *cobra.Command, err error) {
	if jsonOutput(cmd) {
		var verr *checklist.ValidationError
		if errors.As(err, &verr) {
			fields := make([]map[string]interface{}, len(verr.Fields))
			for i, f := range verr.Fields {
				fields[i] = map[string]interface{}{
					"pergunta_id": f.QuestionID,
					"pergunta":    f.Question,
					"problema":    string(f.Problem),
				}
			}
			output.JSONErrorWithDetails(errorCode(err), err.Error(), map[string]interface{}{"campos": fields})
			return
		}
		output.JSONError(errorCode(err), err.Error())
		return
	}
	output.Error("%v", err)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
