package model

import (
	"context"
	"errors"
	"fmt"
)

type ErrorKind string

const (
	Unreachable       ErrorKind = "Unreachable"
	MasterUnknown     ErrorKind = "MasterUnknown"
	Protocol          ErrorKind = "Protocol"
	NoQuorum          ErrorKind = "NoQuorum"
	CycleTimeout      ErrorKind = "CycleTimeout"
	StoreWriteFailure ErrorKind = "StoreWriteFailure"
	StoreQueryFailure ErrorKind = "StoreQueryFailure"
)

// ProbeError is a failure talking to one sentinel or data node.
type ProbeError struct {
	Kind ErrorKind
	Addr string
	Err  error
}

func (e *ProbeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Addr, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Addr, e.Kind, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

type ResolutionError struct {
	Kind    ErrorKind
	Cluster string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cluster %s: %s", e.Cluster, e.Kind)
}

// StoreError carries StoreWriteFailure or StoreQueryFailure.
type StoreError struct {
	Kind ErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Context expiry counts as Unreachable.
func KindOf(err error) ErrorKind {
	var pe *ProbeError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Kind
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Unreachable
	}
	return ""
}
