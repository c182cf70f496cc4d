package tui

import (
	"github.com/jask/otpfield/internal/database/repository"
	"github.com/jask/otpfield/internal/service"
)

type verifiedMsg struct {
	generation uint64
	attempt    int
	result     service.Result
	err        error
}

type clipboardMsg struct {
	text string
	err  error
}

type smsMsg struct {
	body string
}

type statsMsg struct {
	stats  repository.AttemptStats
	recent []repository.Attempt
}

type historyClearedMsg struct{}

type errMsg struct {
	err error
}
