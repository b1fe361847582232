package metadata

/** @brief The types of assets the asset manager knows how to load. */
type ResourceType int

const (
	ResourceTypeNone ResourceType = iota
	ResourceTypeScene
	ResourceTypeShader
)

/** @brief A generic loaded resource. */
type Resource struct {
	Name     string
	FullPath string
	DataSize uint64
	Data     interface{}
}

/**
 * @brief Scene description as parsed from a TOML scene file. Geometries are
 * generated primitives; instances place them with a material identifier.
 */
type SceneConfig struct {
	Name       string                `toml:"name"`
	Geometries []SceneGeometryConfig `toml:"geometries"`
	Instances  []SceneInstanceConfig `toml:"instances"`
}

type SceneGeometryConfig struct {
	Name string `toml:"name"`
	/** @brief Primitive kind: "plane" or "cube". */
	Kind string  `toml:"kind"`
	Size float32 `toml:"size"`
}

type SceneInstanceConfig struct {
	Geometry string    `toml:"geometry"`
	Material uint32    `toml:"material"`
	Position []float32 `toml:"position"`
	Scale    float32   `toml:"scale"`
}
