package geocoding

import (
	"errors"
	"fmt"
)

// ErrUnresolved общий признак неудачи: вызывающему коду не нужно различать причины.
var ErrUnresolved = errors.New("could not determine place")

// Kind причина, по которой место не удалось определить.
type Kind string

const (
	KindNoAddressFound Kind = "no_address_found"
	KindNoPlaceName    Kind = "no_place_name"
	KindNoGeocodeMatch Kind = "no_geocode_match"
	KindProviderError  Kind = "provider_error"
)

// Stage этап алгоритма, на котором произошла ошибка.
type Stage string

const (
	StageReverse Stage = "reverse"
	StageForward Stage = "forward"
)

// ResolutionError единственный тип ошибки, который возвращает Resolver.
// errors.Is(err, ErrUnresolved) выполняется для любого Kind.
type ResolutionError struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocoding %s (%s stage): %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("geocoding %s (%s stage)", e.Kind, e.Stage)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func (e *ResolutionError) Is(target error) bool {
	return target == ErrUnresolved
}

// KindOf возвращает причину неудачи, если err это ResolutionError.
func KindOf(err error) (Kind, bool) {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

func fail(kind Kind, stage Stage, err error) *ResolutionError {
	return &ResolutionError{Kind: kind, Stage: stage, Err: err}
}
