package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultModuleConfig_Vars(t *testing.T) {
	vars := DefaultModuleConfig().Vars()

	want := map[string]string{
		"defaultForm":              "0",
		"showCompany":              "true",
		"showPhone":                "true",
		"showUrl":                  "true",
		"showLocation":             "true",
		"showComment":              "true",
		"showFileAttachment":       "false",
		"uploadDirectory":          "public/formicula/uploads",
		"deleteUploadedFiles":      "true",
		"sendConfirmationToUser":   "true",
		"defaultAdminFormat":       "html",
		"defaultUserFormat":        "html",
		"showUserFormat":           "true",
		"useContactsAsSender":      "true",
		"enableSpamCheck":          "true",
		"excludeSpamCheck":         "",
		"storeSubmissionData":      "false",
		"storeSubmissionDataForms": "",
	}
	assert.Equal(t, want, vars)
}

func TestModuleConfigFromVars_MissingAndMalformedKeepDefaults(t *testing.T) {
	cfg := ModuleConfigFromVars(map[string]string{
		VarShowPhone:       "0",
		VarEnableSpamCheck: "not-a-bool",
		VarDefaultForm:     "3",
		VarShowCompany:     "1",
	})

	assert.False(t, cfg.ShowPhone)
	assert.True(t, cfg.EnableSpamCheck, "malformed bool keeps default")
	assert.Equal(t, 3, cfg.DefaultForm)
	assert.True(t, cfg.ShowCompany)
	assert.Equal(t, DefaultUploadDirectory, cfg.UploadDirectory)
}

func TestModuleConfig_Normalize(t *testing.T) {
	cfg := ModuleConfig{
		ExcludeSpamCheck:         " 1, 2 ,\n3 ",
		StoreSubmissionDataForms: "4,\t5",
	}.Normalize()

	assert.Equal(t, "1,2,3", cfg.ExcludeSpamCheck)
	assert.Equal(t, "4,5", cfg.StoreSubmissionDataForms)
}

func TestModuleConfig_SpamCheckRequired(t *testing.T) {
	cfg := DefaultModuleConfig()
	cfg.ExcludeSpamCheck = "2,5"

	assert.True(t, cfg.SpamCheckRequired(0))
	assert.False(t, cfg.SpamCheckRequired(5))

	cfg.EnableSpamCheck = false
	assert.False(t, cfg.SpamCheckRequired(0))
}

func TestModuleConfig_StoresSubmissionsFor(t *testing.T) {
	cfg := DefaultModuleConfig()
	assert.False(t, cfg.StoresSubmissionsFor(0), "archiving disabled by default")

	cfg.StoreSubmissionData = true
	assert.True(t, cfg.StoresSubmissionsFor(7), "empty list archives every form")

	cfg.StoreSubmissionDataForms = "1,3"
	assert.True(t, cfg.StoresSubmissionsFor(3))
	assert.False(t, cfg.StoresSubmissionsFor(7))
}

func TestContact_Validate(t *testing.T) {
	tests := []struct {
		name    string
		contact Contact
		wantErr bool
	}{
		{name: "public with email", contact: Contact{Name: "Webmaster", Email: "root@example.com", Public: true}},
		{name: "private without email", contact: Contact{Name: "Internal"}},
		{name: "public without email", contact: Contact{Name: "Sales", Public: true}, wantErr: true},
		{name: "missing name", contact: Contact{Email: "a@example.com"}, wantErr: true},
		{name: "bad sender email", contact: Contact{Name: "X", SenderEmail: "nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.contact.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
