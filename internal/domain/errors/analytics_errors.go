package errors

import (
	apperrors "github.com/wekeepgrowing/mailshield/pkg/errors"
)

var (
	// ErrInvalidMode indicates an unknown threat history mode
	ErrInvalidMode = apperrors.NewAppError(apperrors.ErrInvalidArgument, "mode must be one of weekly, monthly, yearly", nil)

	// ErrInvalidAnalysisType indicates an unknown analysis type
	ErrInvalidAnalysisType = apperrors.NewAppError(apperrors.ErrInvalidArgument, "analysis_type must be one of full, quick, deep", nil)

	// ErrAnalyzerFailure wraps analyzer failures
	ErrAnalyzerFailure = apperrors.NewAppError(apperrors.ErrInternal, "email analysis failed", nil)
)
