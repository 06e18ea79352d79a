package handler

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	"github.com/PritStyling132/NEXUS-sub000/internal/pkg/paging"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules used by request structs.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		err = v.RegisterValidation("notblank", validators.NotBlank)
	})
	return err
}

// actorID returns the authenticated user, or uuid.Nil when the request is anonymous.
func actorID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.New(name + " must be a valid uuid")
	}
	return id, nil
}

func pageLimit(limit *int) int {
	if limit == nil {
		return paging.DefaultLimit
	}
	return paging.ClampLimit(*limit)
}
