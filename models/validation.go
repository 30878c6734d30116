package models

import (
	"reflect"
	"strings"

	ptbr "github.com/go-playground/locales/pt_BR"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ptbr_translations "github.com/go-playground/validator/v10/translations/pt_BR"
	"github.com/leebenson/conform"
	"github.com/sirupsen/logrus"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

// fieldMessages overrides the translated text for the checks the pages word themselves.
var fieldMessages = map[string]string{
	"DenunciaCriacao.Descricao.required":   "A descrição é obrigatória",
	"DenunciaCriacao.Localizacao.required": "A localização é obrigatória",
	"DenunciaCriacao.FotoURL.url":          "URL da foto inválida",
	"LoginRequest.Email.required":          "Login é obrigatório",
	"LoginRequest.Senha.required":          "Senha é obrigatória",
	"RegisterRequest.Nome.required":        "O campo NOME é obrigatório",
	"RegisterRequest.Email.email":          "O endereço de e-mail é inválido",
	"DenunciaStatusUpdate.Status.required": "O status é obrigatório",
}

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	locale := ptbr.New()
	uni := ut.New(locale, locale)
	trans, _ = uni.GetTranslator("pt_BR")
	if err := ptbr_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		logrus.Warnf("validator translations not registered: %v", err)
	}
}

// Validate trims the tagged string fields of req in place and returns the first
// failing check as a message, in struct field order. It returns "" when req is valid.
func Validate(req interface{}) string {
	if err := conform.Strings(req); err != nil {
		return err.Error()
	}
	err := validate.Struct(req)
	if err == nil {
		return ""
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrs) == 0 {
		return err.Error()
	}
	return translateError(validationErrs[0])
}

func translateError(e validator.FieldError) string {
	key := strings.TrimPrefix(e.StructNamespace(), "RegisterForm.")
	if msg, ok := fieldMessages[key+"."+e.Tag()]; ok {
		return msg
	}
	return e.Translate(trans)
}
