package domain

import "errors"

var (
	ErrModelNotLoaded      = errors.New("model artifacts are not loaded")
	ErrEmptyText           = errors.New("text is required")
	ErrEmptyBatch          = errors.New("texts must contain at least one item")
	ErrBatchTooLarge       = errors.New("texts must contain at most 100 items")
	ErrInvalidLabel        = errors.New("sentiment label must be -1, 0 or 1")
	ErrVectorizerNotFitted = errors.New("vectorizer has not been fitted")
	ErrEmptyVocabulary     = errors.New("vocabulary is empty: no tokens survived fitting")
	ErrBundleNotFound      = errors.New("artifact bundle not found")
	ErrBundleCorrupt       = errors.New("artifact bundle digest mismatch")
	ErrEmptyDataset        = errors.New("dataset contains no usable rows")
	ErrPredictionFailed    = errors.New("prediction failed")
)
