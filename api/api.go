package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/0xcafe-io/iz"
	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/expense_tracker/internal/expense"
	"github.com/fatali-fataliyev/expense_tracker/logging"
)

const maxBodyBytes = 1 << 20

type Api struct {
	Service *expense.ExpenseTracker
}

func NewApi(service *expense.ExpenseTracker) *Api {
	return &Api{
		Service: service,
	}
}

func (api *Api) RegisterHandler(r *iz.Request) iz.Responder {
	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		return errorResponse(r.Context(), err)
	}

	newUser := auth.NewUser{
		Email:         req.Email,
		Name:          req.Name,
		PasswordPlain: req.Password,
	}

	result, err := api.Service.Register(r.Context(), newUser)
	if err != nil {
		return errorResponse(r.Context(), err)
	}
	return iz.Respond().Status(201).JSON(AuthResultToHttp(result))
}

func (api *Api) LoginHandler(r *iz.Request) iz.Responder {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		return errorResponse(r.Context(), err)
	}

	credentials := auth.UserCredentialsPure{
		Email:         req.Email,
		PasswordPlain: req.Password,
	}

	result, err := api.Service.Login(r.Context(), credentials)
	if err != nil {
		return errorResponse(r.Context(), err)
	}
	return iz.Respond().Status(200).JSON(AuthResultToHttp(result))
}

func (api *Api) MeHandler(r *iz.Request) iz.Responder {
	principal, err := api.Service.Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	user, err := api.Service.Profile(r.Context(), principal)
	if err != nil {
		return errorResponse(r.Context(), err)
	}
	return iz.Respond().Status(200).JSON(UserToHttp(user))
}

func (api *Api) CreateExpenseHandler(r *iz.Request) iz.Responder {
	principal, err := api.Service.Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	var req CreateExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		return errorResponse(r.Context(), err)
	}
	newExpense, err := req.toDomain()
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	created, err := api.Service.CreateExpense(r.Context(), principal, newExpense)
	if err != nil {
		return errorResponse(r.Context(), err)
	}
	return iz.Respond().Status(201).JSON(ExpenseToHttp(created))
}

func (api *Api) ListExpensesHandler(r *iz.Request) iz.Responder {
	principal, err := api.Service.Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	req, err := parseListQuery(r.URL.Query())
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	expenses, err := api.Service.ListExpenses(r.Context(), principal, req)
	if err != nil {
		return errorResponse(r.Context(), err)
	}
	return iz.Respond().Status(200).JSON(ExpensesToHttp(expenses))
}

func (api *Api) RecentExpensesHandler(r *iz.Request) iz.Responder {
	principal, err := api.Service.Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	expenses, err := api.Service.RecentExpenses(r.Context(), principal)
	if err != nil {
		return errorResponse(r.Context(), err)
	}
	return iz.Respond().Status(200).JSON(ExpensesToHttp(expenses))
}

func (api *Api) MonthlySummaryHandler(r *iz.Request) iz.Responder {
	principal, err := api.Service.Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	year, month, err := parseSummaryQuery(r.URL.Query())
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	summary, err := api.Service.MonthlySummary(r.Context(), principal, year, month)
	if err != nil {
		return errorResponse(r.Context(), err)
	}
	return iz.Respond().Status(200).JSON(SummaryToHttp(summary))
}

func (api *Api) GetExpenseHandler(r *iz.Request) iz.Responder {
	principal, err := api.Service.Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	found, err := api.Service.GetExpense(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		return errorResponse(r.Context(), err)
	}
	return iz.Respond().Status(200).JSON(ExpenseToHttp(found))
}

func (api *Api) UpdateExpenseHandler(r *iz.Request) iz.Responder {
	principal, err := api.Service.Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	var req UpdateExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		return errorResponse(r.Context(), err)
	}
	update, err := req.toDomain()
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	updated, err := api.Service.UpdateExpense(r.Context(), principal, r.PathValue("id"), update)
	if err != nil {
		return errorResponse(r.Context(), err)
	}
	return iz.Respond().Status(200).JSON(ExpenseToHttp(updated))
}

func (api *Api) DeleteExpenseHandler(r *iz.Request) iz.Responder {
	principal, err := api.Service.Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		return errorResponse(r.Context(), err)
	}

	if err := api.Service.DeleteExpense(r.Context(), principal, r.PathValue("id")); err != nil {
		return errorResponse(r.Context(), err)
	}
	return iz.Respond().Status(204)
}

func (api *Api) HealthHandler(r *iz.Request) iz.Responder {
	if err := api.Service.CheckStorage(r.Context()); err != nil {
		return iz.Respond().Status(503).JSON(HealthResponse{
			Status:  "unavailable",
			Storage: api.Service.StorageType,
		})
	}
	return iz.Respond().Status(200).JSON(HealthResponse{
		Status:  "ok",
		Storage: api.Service.StorageType,
	})
}

func decodeBody(r *iz.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("invalid request body: %s", err.Error()),
		}
	}
	return nil
}

// errorResponse writes err as {code, message}. Anything without a known
// code is logged and replaced by a generic internal error.
func errorResponse(ctx context.Context, err error) iz.Responder {
	status := httpStatusFromError(err)
	appErr, ok := appErrors.As(err)
	if !ok || status == 500 {
		traceID := contextutil.TraceIDFromContext(ctx)
		logging.Logger.Errorf("[TraceID=%s] | request failed | Error: %v", traceID, err)
		if !ok {
			appErr = appErrors.ErrorResponse{
				Code:    appErrors.ErrInternal,
				Message: "Something went wrong, try again later.",
			}
		}
	}
	return iz.Respond().Status(status).JSON(appErr)
}
