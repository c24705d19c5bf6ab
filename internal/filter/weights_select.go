package filter

import "github.com/lumenforge/denoise/internal/errs"

// selectionKey mirrors the columns of the built-in weight-blob
// selection table.
type selectionKey struct {
	color, albedo, normal bool
	hdr, directional      bool
	cleanAux              bool
}

var builtinBlobs = map[selectionKey]string{
	{color: true}:                                                         "ldr",
	{color: true, hdr: true}:                                              "hdr",
	{color: true, directional: true}:                                      "dir",
	{color: true, albedo: true}:                                           "ldr_alb",
	{color: true, albedo: true, hdr: true}:                                "hdr_alb",
	{color: true, albedo: true, normal: true}:                             "ldr_alb_nrm",
	{color: true, albedo: true, normal: true, hdr: true}:                  "hdr_alb_nrm",
	{color: true, albedo: true, normal: true, cleanAux: true}:             "ldr_calb_cnrm",
	{color: true, albedo: true, normal: true, hdr: true, cleanAux: true}:  "hdr_calb_cnrm",
	{albedo: true}:                                                        "alb",
	{normal: true}:                                                        "nrm",
}

// SelectBlob looks up the built-in weight-blob name for a feature
// combination, per the fixed table in the built-in network's external
// interface. Unlisted combinations are rejected.
func SelectBlob(hasColor, hasAlbedo, hasNormal, hdr, directional, cleanAux bool) (string, error) {
	key := selectionKey{
		color: hasColor, albedo: hasAlbedo, normal: hasNormal,
		hdr: hdr, directional: directional, cleanAux: cleanAux,
	}
	name, ok := builtinBlobs[key]
	if !ok {
		return "", errs.New(errs.InvalidArgument,
			"no built-in weights for color=%v albedo=%v normal=%v hdr=%v directional=%v cleanAux=%v",
			hasColor, hasAlbedo, hasNormal, hdr, directional, cleanAux)
	}
	return name, nil
}
