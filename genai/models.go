package genai

// Wire types for the hosted generative language API. Only the fields the
// storefront uses are modeled; unknown fields in responses are ignored by
// encoding/json.

// GenerateRequest is the body for generateContent and streamGenerateContent
type GenerateRequest struct {
	Contents          []Content          `json:"contents"`
	SystemInstruction *SystemInstruction `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig  `json:"generationConfig,omitempty"`
	Tools             []Tool             `json:"tools,omitempty"`
	ToolConfig        *ToolConfig        `json:"toolConfig,omitempty"`
}

// Content represents a content block in the conversation
type Content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"
	Parts []Part `json:"parts"`
}

// Part is one piece of a content block. Exactly one field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
}

// Blob carries inline binary data such as a source image for video jobs
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// FunctionCall is the model asking the caller to run a declared function
type FunctionCall struct {
	ID   string                 `json:"id,omitempty"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// FunctionResponse returns a function outcome to the model
type FunctionResponse struct {
	ID       string                 `json:"id,omitempty"`
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

// SystemInstruction represents system instructions
type SystemInstruction struct {
	Parts []Part `json:"parts"`
}

// GenerationConfig represents generation configuration
type GenerationConfig struct {
	Temperature     float32  `json:"temperature,omitempty"`
	TopP            float32  `json:"topP,omitempty"`
	TopK            int      `json:"topK,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

// Tool declares capabilities available to the model. A tool entry carries
// either function declarations or the hosted search grounding toggle.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
	GoogleSearch         *GoogleSearch         `json:"googleSearch,omitempty"`
}

// GoogleSearch enables hosted search grounding
type GoogleSearch struct{}

// FunctionDeclaration describes one callable function in OpenAPI subset form
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Schema is the OpenAPI subset schema used for function parameters
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// ToolConfig carries retrieval configuration such as location bias
type ToolConfig struct {
	RetrievalConfig *RetrievalConfig `json:"retrievalConfig,omitempty"`
}

// RetrievalConfig biases grounding retrieval
type RetrievalConfig struct {
	LatLng *LatLng `json:"latLng,omitempty"`
}

// LatLng is a coordinate pair for retrieval biasing
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GenerateResponse is the response from generateContent; streamed chunks
// share the same shape.
type GenerateResponse struct {
	Candidates    []Candidate   `json:"candidates"`
	UsageMetadata UsageMetadata `json:"usageMetadata"`
	ModelVersion  string        `json:"modelVersion"`
}

// Candidate represents a response candidate
type Candidate struct {
	Content           Content            `json:"content"`
	FinishReason      string             `json:"finishReason"`
	Index             int                `json:"index"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// GroundingMetadata carries source attributions for a candidate
type GroundingMetadata struct {
	GroundingChunks []GroundingChunk `json:"groundingChunks,omitempty"`
}

// GroundingChunk is one attribution entry; Web or Maps is set, not both
type GroundingChunk struct {
	Web  *GroundingSource `json:"web,omitempty"`
	Maps *GroundingSource `json:"maps,omitempty"`
}

// GroundingSource points at an attributed document or place
type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// UsageMetadata represents token usage information
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// ErrorResponse represents an error payload from the API
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Image generation (predict endpoint)

// PredictRequest is the body for image model :predict calls
type PredictRequest struct {
	Instances  []PredictInstance `json:"instances"`
	Parameters PredictParameters `json:"parameters"`
}

// PredictInstance carries the generation prompt
type PredictInstance struct {
	Prompt string `json:"prompt"`
}

// PredictParameters controls image generation
type PredictParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// PredictResponse is the image model response
type PredictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Prediction is one generated image
type Prediction struct {
	MimeType           string `json:"mimeType"`
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
}

// Video generation (long-running operations)

// VideoRequest is the body for video model :predictLongRunning calls
type VideoRequest struct {
	Instances  []VideoInstance `json:"instances"`
	Parameters VideoParameters `json:"parameters"`
}

// VideoInstance carries the prompt and optional source image
type VideoInstance struct {
	Prompt string `json:"prompt,omitempty"`
	Image  *Blob  `json:"image,omitempty"`
}

// VideoParameters controls video generation
type VideoParameters struct {
	AspectRatio      string `json:"aspectRatio,omitempty"`
	NumberOfVideos   int    `json:"numberOfVideos,omitempty"`
	DurationSeconds  int    `json:"durationSeconds,omitempty"`
	PersonGeneration string `json:"personGeneration,omitempty"`
}

// Operation is a long-running job handle returned by predictLongRunning
type Operation struct {
	Name     string         `json:"name"`
	Done     bool           `json:"done"`
	Error    *rpcStatus     `json:"error,omitempty"`
	Response *VideoResponse `json:"response,omitempty"`
}

type rpcStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// VideoResponse is the terminal payload of a finished video operation
type VideoResponse struct {
	GenerateVideoResponse struct {
		GeneratedSamples []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedSamples"`
	} `json:"generateVideoResponse"`
}
