package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-fmcw-raytracer/pkg/core"
	"github.com/df07/go-fmcw-raytracer/pkg/geometry"
)

// LoadOBJ loads a Wavefront OBJ file into a triangle mesh. Only vertex
// positions and faces are used; normals, texture coordinates, groups
// and material statements are skipped since all surfaces are treated
// as perfect conductors.
func LoadOBJ(filename string) (*geometry.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer file.Close()

	mesh, err := ReadOBJ(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return mesh, nil
}

// ReadOBJ parses OBJ geometry from a reader
func ReadOBJ(r io.Reader) (*geometry.Mesh, error) {
	mesh := geometry.NewMesh()
	var vertices []core.Vec3

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			vertices = append(vertices, v)

		case "f":
			idx, err := parseFace(fields[1:], len(vertices))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			// Fan triangulation for polygons with more than 3 vertices
			for i := 1; i+1 < len(idx); i++ {
				mesh.AddTriangle(vertices[idx[0]], vertices[idx[i]], vertices[idx[i+1]])
			}
		}
		// vn, vt, g, o, s, usemtl, mtllib are ignored
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return mesh, nil
}

// parseVertex parses the coordinates of a "v" statement
func parseVertex(fields []string) (core.Vec3, error) {
	if len(fields) < 3 {
		return core.Vec3{}, fmt.Errorf("vertex needs 3 coordinates, got %d", len(fields))
	}
	var coords [3]float64
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("invalid vertex coordinate %q: %w", fields[i], err)
		}
		coords[i] = val
	}
	return core.NewVec3(coords[0], coords[1], coords[2]), nil
}

// parseFace resolves the vertex indices of an "f" statement. OBJ
// indices are 1-based; negative indices count back from the most
// recently defined vertex.
func parseFace(fields []string, vertexCount int) ([]int, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("face needs at least 3 vertices, got %d", len(fields))
	}
	idx := make([]int, 0, len(fields))
	for _, f := range fields {
		// Each vertex reference may be v, v/vt, v//vn or v/vt/vn
		ref := f
		if slash := strings.IndexByte(f, '/'); slash >= 0 {
			ref = f[:slash]
		}
		i, err := strconv.Atoi(ref)
		if err != nil {
			return nil, fmt.Errorf("invalid face index %q: %w", f, err)
		}
		switch {
		case i > 0:
			i--
		case i < 0:
			i += vertexCount
		default:
			return nil, fmt.Errorf("face index 0 is not valid")
		}
		if i < 0 || i >= vertexCount {
			return nil, fmt.Errorf("face index %s out of range (%d vertices defined)", ref, vertexCount)
		}
		idx = append(idx, i)
	}
	return idx, nil
}
