// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrJobNotFound indicates the requested debate job does not exist.
var ErrJobNotFound = errors.New("debate job not found")
