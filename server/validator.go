package server

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/lmxdawn/ethwallet/engine"
	"github.com/pkg/errors"
)

var (
	trans         ut.Translator
	validatorOnce sync.Once
	validatorErr  error
)

// InitValidator 注册自定义校验规则和英文提示，可重复调用
func InitValidator() error {
	validatorOnce.Do(func() {
		validatorErr = registerValidator()
	})
	return validatorErr
}

func registerValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	uni := ut.New(en.New())
	trans, _ = uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return errors.Wrap(err, "register translations")
	}

	// 提示里使用 json 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	rules := []struct {
		tag     string
		message string
		fn      validator.Func
	}{
		{"eth_addr", "{0} must be a 0x-prefixed 20-byte hex address", validateAddress},
		{"eth_amount", "{0} must be a positive decimal ETH amount with at most 18 fractional digits", validateAmount},
	}
	for _, rule := range rules {
		rule := rule
		if err := v.RegisterValidation(rule.tag, rule.fn); err != nil {
			return errors.Wrapf(err, "register %s", rule.tag)
		}
		err := v.RegisterTranslation(rule.tag, trans, func(ut ut.Translator) error {
			return ut.Add(rule.tag, rule.message, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(rule.tag, fe.Field())
			return t
		})
		if err != nil {
			return errors.Wrapf(err, "register %s translation", rule.tag)
		}
	}
	return nil
}

func validateAddress(fl validator.FieldLevel) bool {
	_, err := engine.ParseAddress(fl.Field().String())
	return err == nil
}

func validateAmount(fl validator.FieldLevel) bool {
	wei, err := engine.ParseEther(fl.Field().String())
	return err == nil && wei.Sign() > 0
}

// HandleValidatorError 参数错误属于 InvalidRequest，附带具体原因
func HandleValidatorError(c *gin.Context, err error) {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		APIResponse(c, &engine.InvalidRequestError{Reason: err.Error()}, nil)
		return
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		if trans != nil {
			msgs = append(msgs, fe.Translate(trans))
		} else {
			msgs = append(msgs, fe.Error())
		}
	}
	APIResponse(c, &engine.InvalidRequestError{Reason: strings.Join(msgs, "; ")}, nil)
}
