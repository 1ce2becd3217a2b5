package controller

import (
	"chatcal-api/core/controller"
	"chatcal-api/core/dto"
	"chatcal-api/core/params"
	"chatcal-api/modules/colorslot/entity"
	"chatcal-api/modules/colorslot/store"

	"github.com/labstack/echo/v4"
)

type SlotsController struct {
	base  controller.BaseController
	store store.TabularStore
}

func NewSlotsController(st store.TabularStore) *SlotsController {
	return &SlotsController{
		base:  controller.NewBaseController(),
		store: st,
	}
}

// List returns the current color table so an operator can see remaining
// capacity and existing bindings.
func (ctrl *SlotsController) List(c echo.Context) error {
	p := params.FromContext(c)

	rows, appErr := ctrl.store.ReadAll(c.Request().Context())
	if appErr != nil {
		return ctrl.base.ErrorResponse(c, appErr)
	}

	totalItems := len(rows)
	offset := (p.PageNumber - 1) * p.PageSize
	end := offset + p.PageSize

	if offset > totalItems {
		return ctrl.base.SuccessResponse(c,
			dto.NewPagination([]entity.ColorSlot{}, totalItems, p.PageNumber, p.PageSize), "color slots")
	}
	if end > totalItems {
		end = totalItems
	}

	return ctrl.base.SuccessResponse(c,
		dto.NewPagination(rows[offset:end], totalItems, p.PageNumber, p.PageSize), "color slots")
}
