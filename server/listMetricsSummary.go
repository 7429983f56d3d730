package server

import (
	"context"
	"net/http"

	"github.com/neritic/functiond/mapping"
	"github.com/neritic/functiond/protocol"
)

func (h AppServer) listMetricsSummary(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {

	d := DAOFromContext(ctx)

	summaries, err := d.GetMetricsSummary()
	if err != nil {
		return NewAppError(http.StatusInternalServerError, err, "Error retrieving metrics")
	}

	apiResponse := protocol.MetricsSummaryResponse{Metrics: mapping.MapMetricsSummariesToProtocol(summaries)}
	jsonResponse(w, apiResponse)
	return nil
}
