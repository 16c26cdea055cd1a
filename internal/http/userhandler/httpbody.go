package userhandler

type RegisterUserBody struct {
	Username string `json:"username" binding:"required" example:"alice"`
} // @name RegisterUserRequest

type UserResponse struct {
	Username string   `json:"username"`
	Friends  []string `json:"friends"`
} // @name UserResponse

type GroupResponse struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
} // @name GroupResponse

type OnlineResponse struct {
	Online []string `json:"online"`
} // @name OnlineResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
