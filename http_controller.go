package phonebook

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// UserContextKey is the request-locals key the session guard stores the
// authenticated user under.
const UserContextKey = "user"

// Controller wires the HTTP surface to the domain services. Handlers return
// errors; HTTPErrorHandler maps them to JSON responses.
type Controller struct {
	Debug         bool
	Logger        Logger
	Accounts      *Accounts
	Verifications *Verifications
	Avatars       *AvatarProcessor
	Contacts      *ContactBook
	Guard         fiber.Handler
}

type ControllerOption func(*Controller) *Controller

// NewController will create a new Controller
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing Accounts service in controller...")
	}

	if c.Verifications == nil {
		panic("Missing Verifications service in controller...")
	}

	if c.Avatars == nil {
		panic("Missing AvatarProcessor in controller...")
	}

	if c.Contacts == nil {
		panic("Missing ContactBook service in controller...")
	}

	if c.Guard == nil {
		panic("Missing session guard in controller...")
	}

	return c
}

func WithControllerLogger(l Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithAccounts(s *Accounts) ControllerOption {
	return func(c *Controller) *Controller {
		c.Accounts = s
		return c
	}
}

func WithVerifications(s *Verifications) ControllerOption {
	return func(c *Controller) *Controller {
		c.Verifications = s
		return c
	}
}

func WithAvatars(s *AvatarProcessor) ControllerOption {
	return func(c *Controller) *Controller {
		c.Avatars = s
		return c
	}
}

func WithContacts(s *ContactBook) ControllerOption {
	return func(c *Controller) *Controller {
		c.Contacts = s
		return c
	}
}

func WithGuard(guard fiber.Handler) ControllerOption {
	return func(c *Controller) *Controller {
		c.Guard = guard
		return c
	}
}

func WithDebug(debug bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Debug = debug
		return c
	}
}

// RegisterRoutes mounts every endpoint. The guard's position in the chain is
// explicit here: everything after it requires an active session.
func (ctrl *Controller) RegisterRoutes(app *fiber.App) {
	app.Post("/signup", ctrl.Signup).Name("signup.post")
	app.Post("/login", ctrl.Login).Name("login.post")

	app.Get("/verify/:verificationToken", ctrl.VerifyConfirm).Name("verify.get")
	app.Post("/verify", ctrl.VerifyResend).Name("verify.post")

	app.Get("/current", ctrl.Guard, ctrl.Current).Name("current.get")
	app.Get("/logout", ctrl.Guard, ctrl.Logout).Name("logout.get")
	app.Patch("/users", ctrl.Guard, ctrl.UpdateSubscription).Name("users.patch")
	app.Patch("/avatars", ctrl.Guard, ctrl.UpdateAvatar).Name("avatars.patch")

	contacts := app.Group("/contacts", ctrl.Guard)
	contacts.Get("/", ctrl.ContactsList).Name("contacts.list")
	contacts.Get("/:id", ctrl.ContactsGet).Name("contacts.get")
	contacts.Post("/", ctrl.ContactsCreate).Name("contacts.post")
	contacts.Put("/:id", ctrl.ContactsUpdate).Name("contacts.put")
	contacts.Delete("/:id", ctrl.ContactsDelete).Name("contacts.delete")
}

// UserFromLocals retrieves the authenticated user the guard attached to the
// request.
func UserFromLocals(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(UserContextKey).(*User)
	return user, ok && user != nil
}

// SignupRequest payload
type SignupRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 100),
		),
	)
}

func (ctrl *Controller) Signup(c *fiber.Ctx) error {
	payload := new(SignupRequest)

	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse body")
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	if ctrl.Debug {
		fmt.Println("======= SIGNUP ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=====================")
	}

	user, err := ctrl.Accounts.Signup(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user": user.Projection(),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (ctrl *Controller) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse body")
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	token, user, err := ctrl.Accounts.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user.Projection(),
	})
}

func (ctrl *Controller) Current(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return ErrNotAuthorized
	}
	return c.JSON(user.Projection())
}

func (ctrl *Controller) Logout(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return ErrNotAuthorized
	}

	if err := ctrl.Accounts.Logout(c.Context(), user); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Logout successful",
	})
}

// SubscriptionRequest payload
type SubscriptionRequest struct {
	Subscription string `form:"subscription" json:"subscription"`
}

// Validate will run validation rules
func (r SubscriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Subscription,
			validation.Required,
			validation.In(TierStarter, TierPro, TierBusiness),
		),
	)
}

func (ctrl *Controller) UpdateSubscription(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return ErrNotAuthorized
	}

	payload := new(SubscriptionRequest)

	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse body")
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	updated, err := ctrl.Accounts.UpdateSubscription(c.Context(), user, payload.Subscription)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user": updated.Projection(),
	})
}

func (ctrl *Controller) UpdateAvatar(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return ErrNotAuthorized
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		return badRequest("missing avatar file")
	}

	src, err := header.Open()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open avatar upload")
	}
	defer src.Close()

	url, err := ctrl.Avatars.Process(c.Context(), user, src, header.Filename)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"avatarUrl": url,
	})
}

func (ctrl *Controller) VerifyConfirm(c *fiber.Ctx) error {
	token := c.Params("verificationToken")

	if err := ctrl.Verifications.Confirm(c.Context(), token); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Verification successful",
	})
}

// ResendRequest payload
type ResendRequest struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r ResendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (ctrl *Controller) VerifyResend(c *fiber.Ctx) error {
	payload := new(ResendRequest)

	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse body")
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	if err := ctrl.Verifications.Resend(c.Context(), payload.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Verification email sent",
	})
}

// ContactPayload carries the client shape for create and update.
type ContactPayload struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
	Phone string `form:"phone" json:"phone"`
}

// MissingField returns the first required field without a value, empty when
// the payload is complete.
func (p ContactPayload) MissingField() string {
	switch {
	case p.Name == "":
		return "name"
	case p.Email == "":
		return "email"
	case p.Phone == "":
		return "phone"
	default:
		return ""
	}
}

// Validate will run validation rules
func (p ContactPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.Email,
			is.Email,
		),
	)
}

func (ctrl *Controller) ContactsList(c *fiber.Ctx) error {
	records, err := ctrl.Contacts.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (ctrl *Controller) ContactsGet(c *fiber.Ctx) error {
	record, err := ctrl.Contacts.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(record)
}

func (ctrl *Controller) ContactsCreate(c *fiber.Ctx) error {
	payload := new(ContactPayload)

	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse body")
	}

	if field := payload.MissingField(); field != "" {
		return badRequest(fmt.Sprintf("missing required %s - field", field))
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	created, err := ctrl.Contacts.Create(c.Context(), &Contact{
		Name:  payload.Name,
		Email: payload.Email,
		Phone: payload.Phone,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (ctrl *Controller) ContactsUpdate(c *fiber.Ctx) error {
	payload := new(ContactPayload)

	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse body")
	}

	if payload.MissingField() != "" {
		return badRequest("missing fields")
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	updated, err := ctrl.Contacts.Update(c.Context(), c.Params("id"), &Contact{
		Name:  payload.Name,
		Email: payload.Email,
		Phone: payload.Phone,
	})
	if err != nil {
		return err
	}

	return c.JSON(updated)
}

func (ctrl *Controller) ContactsDelete(c *fiber.Ctx) error {
	existed, err := ctrl.Contacts.Remove(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	if !existed {
		return ErrNotFound
	}

	return c.JSON(fiber.Map{
		"message": "contact deleted",
	})
}

func badRequest(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest)
}

func validationError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
		WithCode(goerrors.CodeBadRequest)
}

// HTTPErrorHandler renders every handler error as `{"message": ...}` with the
// status the error's code carries. Anything without a rich code falls through
// to a 500.
func HTTPErrorHandler(logger Logger, debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if goerrors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"message": fiberErr.Message,
			})
		}

		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) {
			richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
				WithCode(goerrors.CodeInternal)
		}

		if richErr.Code == 0 {
			richErr = richErr.Clone().WithCode(goerrors.CodeInternal)
		}

		logger.Info(
			"request error",
			"error", richErr.Message,
			"category", richErr.Category,
			"path", c.OriginalURL(),
		)

		if debug {
			fmt.Println("======= REQUEST ERROR ======")
			fmt.Println(print.MaybePrettyJSON(richErr))
			fmt.Println("============================")
		}

		return c.Status(richErr.Code).JSON(fiber.Map{
			"message": richErr.Message,
		})
	}
}
