package mocks

import "github.com/stretchr/testify/mock"

// MockSession is a mock implementation of session.Reader
type MockSession struct {
	mock.Mock
}

// HasSession mocks the HasSession method
func (m *MockSession) HasSession() bool {
	return m.Called().Bool(0)
}

// Credential mocks the Credential method
func (m *MockSession) Credential() string {
	return m.Called().String(0)
}

// UserID mocks the UserID method
func (m *MockSession) UserID() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
