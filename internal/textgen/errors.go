package textgen

import "errors"

// Failure taxonomy for the generation endpoint. Each outbound call maps to
// exactly one of these; callers decide retryability with errors.Is.
var (
	// ErrAuthentication covers a missing or rejected credential. Not retryable.
	ErrAuthentication = errors.New("textgen: credencial inválida o ausente")

	// ErrRateLimited means the endpoint is throttling. Retryable after a delay.
	ErrRateLimited = errors.New("textgen: límite de peticiones alcanzado")

	// ErrTimeout means no response arrived within the bounded wait. Retryable.
	ErrTimeout = errors.New("textgen: el modelo tardó demasiado en responder")

	// ErrService covers server-side failures, including 503 cold starts.
	ErrService = errors.New("textgen: fallo del servicio de generación")

	// ErrEmptyResponse means the endpoint answered but produced no usable text.
	ErrEmptyResponse = errors.New("textgen: respuesta vacía del modelo")
)

// Retryable reports whether the failure is safe to retry with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}
