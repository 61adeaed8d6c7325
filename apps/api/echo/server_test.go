package echoapi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/academia/apps/api/echo"
	testutil "github.com/trezcool/academia/tests"
)

func TestNewServer_Options(t *testing.T) {
	_, translator := testutil.NewValidator()
	var nilStore *brokenStore

	tests := []struct {
		name    string
		opts    *Options
		wantErr bool
	}{
		{name: "nil options", opts: nil, wantErr: true},
		{
			name:    "missing faculty service",
			opts:    &Options{JWTSecret: secret, Translator: translator, Logger: testutil.NopLogger{}},
			wantErr: true,
		},
		{
			name:    "typed nil faculty service",
			opts:    &Options{JWTSecret: secret, FacultySvc: nilStore, Translator: translator, Logger: testutil.NopLogger{}},
			wantErr: true,
		},
		{
			name:    "missing secret",
			opts:    &Options{FacultySvc: brokenStore{}, Translator: translator, Logger: testutil.NopLogger{}},
			wantErr: true,
		},
		{
			name: "value typed dependencies",
			opts: &Options{DisableReqLogs: true, JWTSecret: secret, FacultySvc: brokenStore{}, Translator: translator, Logger: testutil.NopLogger{}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			assert.NotPanics(t, func() { _, err = NewServer(tc.opts) })
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
