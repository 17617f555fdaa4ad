package gitx

import (
	"fmt"
	"strings"
)

// systemNamespace is the top-level ref directory this program owns:
// refs/diamond/... Branch names under it are rejected by
// ValidateBranchName so a user branch can never collide with it.
const systemNamespace = "diamond"

// Namespace returns the reserved ref-namespace prefix ("diamond"),
// exported for packages that build ref paths (refstore, backup).
func Namespace() string { return systemNamespace }

// HashObjectBlob writes data as a blob object and returns its hash,
// without touching the index or working tree.
func (r *Repository) HashObjectBlob(data []byte) (Hash, error) {
	out, err := r.runWithStdin(data, "hash-object", "-w", "--stdin")
	if err != nil {
		return "", fmt.Errorf("hash-object: %w", err)
	}
	return Hash(out), nil
}

// ReadBlob reads the blob contents at hash.
func (r *Repository) ReadBlob(hash Hash) ([]byte, error) {
	cmd := []string{"cat-file", "blob", string(hash)}
	out, _, err := r.runRaw(cmd...)
	if err != nil {
		return nil, fmt.Errorf("cat-file blob %s: %w", hash, err)
	}
	return []byte(out), nil
}

// ReadRef resolves ref to the object hash it points at, returning ("",
// nil) if the ref does not exist.
func (r *Repository) ReadRef(ref string) (Hash, error) {
	out, _, err := r.runRaw("rev-parse", "--verify", "--quiet", ref)
	if err != nil {
		return "", nil
	}
	return Hash(strings.TrimSpace(out)), nil
}

// UpdateRef sets ref to point at newValue. If oldValue is non-empty, the
// update is a compare-and-swap: it fails if ref's current value is not
// oldValue, giving refstore writers a race-safe primitive. oldValue is
// passed to git update-ref as is, so an all-zero object name makes the
// update fail unless the ref does not yet exist.
func (r *Repository) UpdateRef(ref string, newValue Hash, oldValue Hash) error {
	args := []string{"update-ref", ref, string(newValue)}
	if oldValue != "" {
		args = append(args, string(oldValue))
	}
	_, err := r.run(args...)
	if err != nil {
		return fmt.Errorf("update-ref %s: %w", ref, err)
	}
	return nil
}

// DeleteRef removes ref. It is not an error for ref to already be absent.
func (r *Repository) DeleteRef(ref string) error {
	if _, err := r.ReadRef(ref); err != nil {
		return err
	}
	_, _, _ = r.runRaw("update-ref", "-d", ref)
	return nil
}

// ForEachRef lists refs under prefix, returning short names relative to
// prefix and their hashes.
func (r *Repository) ForEachRef(prefix string) (map[string]Hash, error) {
	out, err := r.run("for-each-ref", "--format=%(refname) %(objectname)", prefix)
	if err != nil {
		return nil, err
	}
	result := map[string]Hash{}
	if out == "" {
		return result, nil
	}
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimPrefix(parts[0], prefix)
		name = strings.TrimPrefix(name, "/")
		result[name] = Hash(parts[1])
	}
	return result, nil
}

// SymbolicRef reads a symbolic ref's target (e.g. HEAD), returning the
// full ref name it points at.
func (r *Repository) SymbolicRef(ref string) (string, error) {
	out, err := r.run("symbolic-ref", "--quiet", ref)
	if err != nil {
		return "", fmt.Errorf("symbolic-ref %s: %w", ref, err)
	}
	return out, nil
}
