package model

import "errors"

var (
	// ErrConfiguration reports an invalid population size, generation count,
	// strategy name or strategy parameter.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrFactory reports that the individual factory failed to build or
	// evaluate an individual.
	ErrFactory = errors.New("individual factory failed")
	// ErrEvaluation reports that a child or mutant could not be evaluated.
	ErrEvaluation = errors.New("fitness evaluation failed")
	// ErrInvalidFitness reports fitness values a selection strategy cannot
	// turn into probabilities.
	ErrInvalidFitness = errors.New("invalid fitness")
	// ErrRepresentationMismatch reports genomes of incompatible length.
	ErrRepresentationMismatch = errors.New("representation mismatch")
	ErrEmptyPopulation        = errors.New("population is empty")
)
