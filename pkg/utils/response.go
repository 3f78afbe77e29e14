package utils

// ResponseData is the envelope every REST handler returns.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded lets handlers bail on typed errors; the recovery
// middleware translates the panic into the matching JSON response.
func PanicIfNeeded(err any) {
	if err != nil {
		panic(err)
	}
}
