package httphandler

type (
	ErrorResponse struct {
		Error string `json:"error"`
	}

	HealthResponse struct {
		Status string `json:"status"`
	}
)
