package envvar

const (
	// LlamatermEnv is the environment variable used to determine the environment
	LlamatermEnv = "LLAMATERM_ENV"

	// LlamatermBinary overrides the path of the inference binary
	LlamatermBinary = "LLAMATERM_BINARY"

	// LlamatermModelsPath overrides the directory scanned for model files
	LlamatermModelsPath = "LLAMATERM_MODELS_PATH"

	// LlamatermGRPCAddr enables the health endpoint on the given address
	LlamatermGRPCAddr = "LLAMATERM_GRPC_ADDR"
)
