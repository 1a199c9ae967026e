package userdata

// Tag discriminates what native struct a tagged userdata block points
// at. The low values shadow the VM's own type tags; the rest are the
// host's opaque engine types. Values are part of the engine ABI and
// never reordered.
type Tag uint8

const (
	TagNil Tag = iota
	TagBool
	TagLightUserData
	TagNumber
	TagString
	TagTable
	TagFunction
	TagUserData
	TagThread

	TagEntity
	TagVector
	TagAngle
	TagPhysObj
	TagSave
	TagRestore
	TagDamageInfo
	TagEffectData
	TagMoveData
	TagRecipientFilter
	TagUserCmd
	TagScriptedVehicle
	TagMaterial
	TagPanel
	TagParticle
	TagParticleEmitter
	TagTexture
	TagUserMsg
	TagConVar
	TagIMesh
	TagMatrix
	TagSound
	TagPixelVisHandle
	TagDLight
	TagVideo
	TagFile
	TagLocomotion
	TagPath
	TagNavArea
	TagSoundHandle
	TagNavLadder
	TagParticleSystem
	TagProjectedTexture
	TagPhysCollide
	TagSurfaceInfo

	// TagMax bounds the engine tag range; real values are below it.
	TagMax
)

// TagNone marks an absent or unrecognized tag.
const TagNone Tag = 255

var tagNames = [...]string{
	TagNil:              "nil",
	TagBool:             "bool",
	TagLightUserData:    "lightuserdata",
	TagNumber:           "number",
	TagString:           "string",
	TagTable:            "table",
	TagFunction:         "function",
	TagUserData:         "userdata",
	TagThread:           "thread",
	TagEntity:           "Entity",
	TagVector:           "Vector",
	TagAngle:            "Angle",
	TagPhysObj:          "PhysObj",
	TagSave:             "Save",
	TagRestore:          "Restore",
	TagDamageInfo:       "DamageInfo",
	TagEffectData:       "EffectData",
	TagMoveData:         "MoveData",
	TagRecipientFilter:  "RecipientFilter",
	TagUserCmd:          "UserCmd",
	TagScriptedVehicle:  "ScriptedVehicle",
	TagMaterial:         "Material",
	TagPanel:            "Panel",
	TagParticle:         "Particle",
	TagParticleEmitter:  "ParticleEmitter",
	TagTexture:          "Texture",
	TagUserMsg:          "UserMsg",
	TagConVar:           "ConVar",
	TagIMesh:            "IMesh",
	TagMatrix:           "Matrix",
	TagSound:            "Sound",
	TagPixelVisHandle:   "PixelVisHandle",
	TagDLight:           "DLight",
	TagVideo:            "Video",
	TagFile:             "File",
	TagLocomotion:       "Locomotion",
	TagPath:             "Path",
	TagNavArea:          "NavArea",
	TagSoundHandle:      "SoundHandle",
	TagNavLadder:        "NavLadder",
	TagParticleSystem:   "ParticleSystem",
	TagProjectedTexture: "ProjectedTexture",
	TagPhysCollide:      "PhysCollide",
	TagSurfaceInfo:      "SurfaceInfo",
}

func (t Tag) String() string {
	if t == TagNone {
		return "none"
	}
	if int(t) < len(tagNames) && tagNames[t] != "" {
		return tagNames[t]
	}
	return "unknown"
}
