package handler

// errorResponse is the error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// envelope wraps login responses the way the console expects them.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type adminLoginRequest struct {
	Username string `json:"username" query:"username"`
	Password string `json:"password" query:"password"`
}

type registerAdminRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6,max=64"`
	Role     string `json:"role"     validate:"omitempty,oneof=admin superadmin"`
}

type userLoginRequest struct {
	IdentityCard string `json:"identityCard"  validate:"required"`
	Password     string `json:"loginPassword" validate:"required"`
	MachineID    int64  `json:"machineId"     validate:"gte=0"`
}

type loginData struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// --- Users ---

type createUserRequest struct {
	Name         string  `json:"name"          validate:"required,min=2,max=20"`
	IdentityCard string  `json:"identityCard"  validate:"required,idcard"`
	PhoneNumber  string  `json:"phoneNumber"   validate:"omitempty,cnphone"`
	Password     string  `json:"loginPassword" validate:"required,min=6,max=20"`
	Balance      float64 `json:"balance"       validate:"gte=0"`
}

type updateUserRequest struct {
	Name         *string `json:"name"          validate:"omitempty,min=2,max=20"`
	IdentityCard *string `json:"identityCard"  validate:"omitempty,idcard"`
	PhoneNumber  *string `json:"phoneNumber"   validate:"omitempty,cnphone"`
	Password     *string `json:"loginPassword" validate:"omitempty,min=6,max=20"`
	Status       *string `json:"status"        validate:"omitempty,oneof=Online Offline Banned"`
}

type rechargeRequest struct {
	Amount float64 `json:"amount" validate:"gt=0,lte=10000"`
}

type sessionResponse struct {
	User      any     `json:"user"`
	MachineID int64   `json:"machineId"`
	StartedAt string  `json:"startedAt"`
	EndedAt   string  `json:"endedAt"`
	Minutes   int64   `json:"minutes"`
	Charge    float64 `json:"charge"`
}

// --- Inventory ---

type zoneRequest struct {
	Name         string  `json:"name"         validate:"required,max=50"`
	Capacity     int     `json:"capacity"     validate:"gte=0"`
	PricePerHour float64 `json:"pricePerHour" validate:"gt=0"`
	Description  string  `json:"description"  validate:"max=200"`
}

type machineRequest struct {
	Name      string `json:"name"      validate:"required,max=50"`
	ZoneID    int64  `json:"zoneId"    validate:"required,gt=0"`
	IPAddress string `json:"ipAddress" validate:"omitempty,ip"`
}

type machineStatusRequest struct {
	MachineID int64  `json:"machineId" validate:"required,gt=0"`
	Status    string `json:"status"    validate:"required,oneof=Idle Abnormal"`
}

type commodityRequest struct {
	Name  string  `json:"name"  validate:"required,max=50"`
	Price float64 `json:"price" validate:"gt=0"`
	Unit  string  `json:"unit"  validate:"max=10"`
	Stock int     `json:"stock" validate:"gte=0"`
}

// --- Orders ---

// orderLineRequest mirrors the console cart line. Name and price are
// accepted for compatibility and ignored: the catalog is authoritative.
type orderLineRequest struct {
	CommodityID int64   `json:"commodityId" validate:"required,gt=0"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"    validate:"required,gt=0"`
}

type createOrderRequest struct {
	UserID      int64              `json:"userId"      validate:"required,gt=0"`
	MachineID   int64              `json:"machineId"   validate:"required,gt=0"`
	TotalPrice  float64            `json:"totalPrice"`
	Commodities []orderLineRequest `json:"commodities" validate:"required,min=1,dive"`
}

// --- Messages ---

type callRequest struct {
	UserID    int64  `json:"userId"    validate:"required,gt=0"`
	MachineID int64  `json:"machineId" validate:"required,gt=0"`
	Content   string `json:"content"   validate:"required,max=200"`
}
