package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

const securitySchemeName = "bearerAuth"

// OpenAPI is the subset of an OpenAPI 3.0 document this service publishes.
type OpenAPI struct {
	OpenAPI    string                           `json:"openapi" yaml:"openapi"`
	Info       Info                             `json:"info" yaml:"info"`
	Security   []SecurityRequirement            `json:"security,omitempty" yaml:"security,omitempty"`
	Paths      map[string]map[string]*Operation `json:"paths" yaml:"paths"`
	Components Components                       `json:"components" yaml:"components"`
}

type Info struct {
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	Version        string   `json:"version" yaml:"version"`
	TermsOfService string   `json:"termsOfService,omitempty" yaml:"termsOfService,omitempty"`
	Contact        *Contact `json:"contact,omitempty" yaml:"contact,omitempty"`
	License        *License `json:"license,omitempty" yaml:"license,omitempty"`
}

type Contact struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

type License struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

type Operation struct {
	Tags        []string            `json:"tags,omitempty" yaml:"tags,omitempty"`
	Summary     string              `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  []Parameter         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses" yaml:"responses"`
	// Security overrides the document requirement. An empty list marks a public operation.
	Security *[]SecurityRequirement `json:"security,omitempty" yaml:"security,omitempty"`
}

// SecurityRequirement maps a security scheme name to its scopes.
type SecurityRequirement map[string][]string

type Parameter struct {
	Name     string `json:"name" yaml:"name"`
	In       string `json:"in" yaml:"in"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Schema   Schema `json:"schema" yaml:"schema"`
}

type RequestBody struct {
	Required bool                 `json:"required,omitempty" yaml:"required,omitempty"`
	Content  map[string]MediaType `json:"content" yaml:"content"`
}

type MediaType struct {
	Schema Schema `json:"schema" yaml:"schema"`
}

type Schema struct {
	Type       string            `json:"type,omitempty" yaml:"type,omitempty"`
	Format     string            `json:"format,omitempty" yaml:"format,omitempty"`
	Properties map[string]Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required   []string          `json:"required,omitempty" yaml:"required,omitempty"`
}

type Response struct {
	Description string `json:"description" yaml:"description"`
}

type Components struct {
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes" yaml:"securitySchemes"`
}

type SecurityScheme struct {
	Type         string `json:"type" yaml:"type"`
	Scheme       string `json:"scheme" yaml:"scheme"`
	BearerFormat string `json:"bearerFormat,omitempty" yaml:"bearerFormat,omitempty"`
}

type route struct {
	method      string
	path        string
	tag         string
	summary     string
	description string
	public      bool
	body        *RequestBody
}

func jsonBody(required []string, props map[string]Schema) *RequestBody {
	return &RequestBody{
		Required: true,
		Content:  map[string]MediaType{"application/json": {Schema: Schema{Type: "object", Properties: props, Required: required}}},
	}
}

func multipartBody(required []string, props map[string]Schema) *RequestBody {
	return &RequestBody{
		Required: true,
		Content:  map[string]MediaType{"multipart/form-data": {Schema: Schema{Type: "object", Properties: props, Required: required}}},
	}
}

var (
	stringSchema = Schema{Type: "string"}
	binarySchema = Schema{Type: "string", Format: "binary"}
)

var routes = []route{
	{method: "post", path: "/auth/login", tag: "Auth", summary: "로그인", description: "Exchange a Firebase ID token for a session token", public: true,
		body: jsonBody([]string{"idToken"}, map[string]Schema{"idToken": stringSchema})},
	{method: "get", path: "/auth/me", tag: "Auth", summary: "내 정보 조회"},
	{method: "get", path: "/user/{userId}", tag: "User", summary: "유저 조회"},
	{method: "put", path: "/user", tag: "User", summary: "유저 정보 수정",
		body: jsonBody([]string{"name"}, map[string]Schema{"name": stringSchema, "location": stringSchema, "profileImgUrl": stringSchema})},
	{method: "delete", path: "/user/{userId}", tag: "User", summary: "회원 탈퇴"},
	{method: "post", path: "/user/location", tag: "User", summary: "유저 위치 설정",
		body: jsonBody([]string{"latitude", "longitude"}, map[string]Schema{"latitude": {Type: "number", Format: "double"}, "longitude": {Type: "number", Format: "double"}})},
	{method: "post", path: "/user/profile-image", tag: "User", summary: "프로필 이미지 변경",
		body: multipartBody([]string{"file"}, map[string]Schema{"file": binarySchema})},
	{method: "post", path: "/board", tag: "Board", summary: "게시글 작성",
		body: multipartBody([]string{"productName"}, map[string]Schema{
			"productName":    stringSchema,
			"price":          {Type: "integer", Format: "int64"},
			"expirationDate": {Type: "string", Format: "date"},
			"description":    stringSchema,
			"file":           binarySchema,
		})},
	{method: "get", path: "/board/list", tag: "Board", summary: "게시글 목록 조회", description: "Boards in ?location=, defaulting to the caller's location"},
	{method: "get", path: "/board/{boardId}", tag: "Board", summary: "게시글 조회"},
	{method: "delete", path: "/board/{boardId}", tag: "Board", summary: "게시글 삭제"},
	{method: "get", path: "/like/{boardId}", tag: "Like", summary: "게시글 좋아요", description: "관심 등록"},
	{method: "delete", path: "/like/{boardId}", tag: "Like", summary: "게시글 좋아요 취소", description: "관심 등록 취소"},
	{method: "get", path: "/like/list/{userId}", tag: "Like", summary: "유저 좋아요 목록 조회", description: "관심목록 조회"},
}

// DocsConfig describes the published API document.
type DocsConfig struct {
	Version string
	// DevProfile adds an Authorization header parameter to every operation.
	DevProfile bool
}

// BuildOpenAPI assembles the API document.
func BuildOpenAPI(cfg DocsConfig) OpenAPI {
	doc := OpenAPI{
		OpenAPI: "3.0.1",
		Info: Info{
			Title:          "InhaHackathon",
			Description:    "FoodMarket API Document",
			Version:        cfg.Version,
			TermsOfService: "http://swagger.io/terms/",
			Contact:        &Contact{Name: "InhaHackathon", URL: "https://github.com/InhaHackathon"},
			License:        &License{Name: "Food Market License Version 1.0", URL: "https://github.com/InhaHackathon/FoodMarketServer"},
		},
		Security: []SecurityRequirement{{securitySchemeName: {}}},
		Paths:    make(map[string]map[string]*Operation),
		Components: Components{
			SecuritySchemes: map[string]SecurityScheme{
				securitySchemeName: {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
			},
		},
	}

	for _, rt := range routes {
		op := &Operation{
			Tags:        []string{rt.tag},
			Summary:     rt.summary,
			Description: rt.description,
			Parameters:  pathParameters(rt.path),
			RequestBody: rt.body,
			Responses: map[string]Response{
				"200": {Description: "OK"},
				"400": {Description: "Bad Request"},
				"401": {Description: "Unauthorized"},
			},
		}
		if rt.public {
			public := []SecurityRequirement{}
			op.Security = &public
			delete(op.Responses, "401")
		}
		if cfg.DevProfile {
			op.Parameters = append(op.Parameters, Parameter{Name: "Authorization", In: "header", Schema: stringSchema})
		}

		if doc.Paths[rt.path] == nil {
			doc.Paths[rt.path] = make(map[string]*Operation)
		}
		doc.Paths[rt.path][rt.method] = op
	}
	return doc
}

func pathParameters(p string) []Parameter {
	var params []Parameter
	for _, segment := range strings.Split(p, "/") {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			params = append(params, Parameter{
				Name:     strings.Trim(segment, "{}"),
				In:       "path",
				Required: true,
				Schema:   Schema{Type: "integer", Format: "int64"},
			})
		}
	}
	return params
}

// DocsRouter serves the document as JSON at /v3/api-docs and as YAML at /v3/api-docs.yaml.
func DocsRouter(r chi.Router, cfg DocsConfig) {
	doc := BuildOpenAPI(cfg)
	r.Get("/v3/api-docs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, doc)
	})
	r.Get("/v3/api-docs.yaml", func(w http.ResponseWriter, r *http.Request) {
		out, err := yaml.Marshal(doc)
		if err != nil {
			http.Error(w, "failed to render document", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
	})
}
