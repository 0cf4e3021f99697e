package backend

// GLX attribute and token values, as defined by the GLX 1.4 specification.
// Declared here so that neither the pipeline nor the backends need a GLX
// header at build time; the vendor-library backend passes them through
// unchanged.
const (
	None = 0

	RGBA           = 4
	DoubleBuffer   = 5
	Stereo         = 6
	AuxBuffers     = 7
	RedSize        = 8
	GreenSize      = 9
	BlueSize       = 10
	AlphaSize      = 11
	DepthSize      = 12
	StencilSize    = 13
	AccumRedSize   = 14
	AccumGreenSize = 15
	AccumBlueSize  = 16
	AccumAlphaSize = 17

	SampleBuffers = 100000
	Samples       = 100001

	// Client string names.
	Vendor     = 1
	Version    = 2
	Extensions = 3

	VisualID = 0x800B

	RGBAType = 0x8014

	PreservedContents = 0x801B
	Width             = 0x801D
	Height            = 0x801E
	PbufferHeight     = 0x8040
	PbufferWidth      = 0x8041
)

// OpenGL tokens used by the pipeline.
const (
	GLBack = 0x0405

	GLQuads = 0x0007

	GLColorBufferBit = 0x4000

	GLTextureRectangle = 0x84F5

	GLRGBA               = 0x1908
	GLBGRA               = 0x80E1
	GLUnsignedInt8888Rev = 0x8367

	GLPixelPackBuffer = 0x88EB
	GLStreamRead      = 0x88E1
	GLReadOnly        = 0x88B8

	GLSyncGPUCommandsComplete = 0x9117

	GLFloat             = 0x1406
	GLVertexArray       = 0x8074
	GLTextureCoordArray = 0x8078
)

// GLTimeoutIgnored disables the timeout of a GPU-side sync wait.
const GLTimeoutIgnored = ^uint64(0)
