// Package otp generates one-time numeric codes for confirmation, password
// reset, and MFA challenges.
package otp

import (
	"crypto/rand"
)

const digits = 6

// DeterministicCode is the code produced in deterministic mode. Keeping it
// fixed lets offline clients and tests complete challenges without reading
// the delivery log.
const DeterministicCode = "999999"

// Service generates one-time codes. In deterministic mode (the emulator
// default) every code is DeterministicCode; otherwise codes are random
// 6-digit strings.
type Service struct {
	deterministic bool
}

// New returns an OTP service. deterministic selects the fixed-code mode.
func New(deterministic bool) *Service {
	return &Service{deterministic: deterministic}
}

// Code returns the next one-time code.
func (s *Service) Code() (string, error) {
	if s.deterministic {
		return DeterministicCode, nil
	}
	return randomCode()
}

// randomCode returns a random 6-digit numeric string using crypto/rand.
func randomCode() (string, error) {
	b := make([]byte, digits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, digits)
	for i := 0; i < digits; i++ {
		s[i] = '0' + (b[i] % 10)
	}
	return string(s), nil
}
