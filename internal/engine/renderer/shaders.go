package renderer

const sceneVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec3 vWorldPos;
out vec3 vNormal;
out vec2 vUV;

void main() {
    vec4 world = uModel * vec4(aPosition, 1.0);
    vWorldPos = world.xyz;
    vNormal = mat3(transpose(inverse(uModel))) * aNormal;
    vUV = aUV;
    gl_Position = uProjection * uView * world;
}
`

// The fragment stage is a compact metallic/roughness model: Lambert diffuse,
// GGX specular, an optional clearcoat lobe and a procedural grey studio
// environment standing in for an HDR environment map.
const sceneFragmentShader = `
#version 410 core

#define MAX_LIGHTS 4
const float PI = 3.14159265359;

in vec3 vWorldPos;
in vec3 vNormal;
in vec2 vUV;

uniform vec3 uCameraPos;

uniform vec3 uAmbient;
uniform int uLightCount;
uniform vec3 uLightDir[MAX_LIGHTS];
uniform vec3 uLightColor[MAX_LIGHTS];
uniform float uEnvStrength;
uniform float uEnvRotation;

uniform vec3 uBaseColor;
uniform float uOpacity;
uniform float uRoughness;
uniform float uMetalness;
uniform float uEnvIntensity;
uniform float uClearcoat;
uniform float uClearcoatRoughness;
uniform float uReflectivity;
uniform float uTransmission;
uniform float uIOR;
uniform bool uDiffuseOnly;

uniform vec3 uEmissive;
uniform float uEmissiveIntensity;

uniform bool uHasMap;
uniform sampler2D uMap;
uniform bool uHasAlphaMap;
uniform sampler2D uAlphaMap;
uniform bool uHasEmissiveMap;
uniform sampler2D uEmissiveMap;
uniform bool uHasOverlay;
uniform sampler2D uOverlayMap;
uniform vec3 uOverlayColor;

out vec4 FragColor;

vec3 studio(vec3 dir, float rough) {
    float c = cos(uEnvRotation), s = sin(uEnvRotation);
    dir = vec3(c * dir.x + s * dir.z, dir.y, -s * dir.x + c * dir.z);
    float h = clamp(dir.y * 0.5 + 0.5, 0.0, 1.0);
    vec3 sharp = mix(vec3(0.18), vec3(0.95), smoothstep(0.35, 0.75, h));
    // Soft box above and in front of the product.
    float box = smoothstep(0.92, 0.98, dot(dir, normalize(vec3(0.2, 0.8, 0.55))));
    sharp += vec3(2.0) * box;
    vec3 blurred = vec3(mix(0.35, 0.8, h));
    return mix(sharp, blurred, rough * rough);
}

float ggx(float NdotH, float rough) {
    float a = max(rough * rough, 0.002);
    float a2 = a * a;
    float d = NdotH * NdotH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}

float visibility(float NdotL, float NdotV, float rough) {
    float k = (rough + 1.0) * (rough + 1.0) / 8.0;
    float vl = NdotL / (NdotL * (1.0 - k) + k);
    float vv = NdotV / (NdotV * (1.0 - k) + k);
    return vl * vv / max(4.0 * NdotL * NdotV, 1e-4);
}

vec3 schlick(vec3 f0, float cosTheta) {
    return f0 + (1.0 - f0) * pow(1.0 - cosTheta, 5.0);
}

void main() {
    vec3 albedo = uBaseColor;
    float alpha = uOpacity;
    if (uHasMap) {
        vec4 t = texture(uMap, vUV);
        albedo *= t.rgb;
        alpha *= t.a;
    }
    if (uHasOverlay) {
        vec4 o = texture(uOverlayMap, vUV);
        albedo = mix(albedo, uOverlayColor, o.a);
        alpha = max(alpha, o.a);
    }
    if (uHasAlphaMap) {
        alpha *= texture(uAlphaMap, vUV).g;
    }
    alpha *= 1.0 - uTransmission;

    vec3 N = normalize(vNormal);
    if (!gl_FrontFacing) {
        N = -N;
    }
    vec3 V = normalize(uCameraPos - vWorldPos);
    float NdotV = max(dot(N, V), 1e-4);

    float rough = clamp(uRoughness, 0.04, 1.0);
    float metal = clamp(uMetalness, 0.0, 1.0);
    vec3 diffuseColor = albedo * (1.0 - metal);

    float dielectric = pow((uIOR - 1.0) / (uIOR + 1.0), 2.0);
    vec3 f0 = mix(vec3(dielectric * 2.0 * uReflectivity), albedo, metal);

    vec3 color = uAmbient * diffuseColor / PI;
    vec3 specular = vec3(0.0);
    float coat = clamp(uClearcoat, 0.0, 1.0);

    for (int i = 0; i < MAX_LIGHTS; i++) {
        if (i >= uLightCount) {
            break;
        }
        vec3 L = uLightDir[i];
        float NdotL = max(dot(N, L), 0.0);
        if (NdotL <= 0.0) {
            continue;
        }
        vec3 irradiance = uLightColor[i] * NdotL;
        color += irradiance * diffuseColor / PI;
        if (uDiffuseOnly) {
            continue;
        }
        vec3 H = normalize(L + V);
        float NdotH = max(dot(N, H), 0.0);
        vec3 F = schlick(f0, max(dot(V, H), 0.0));
        specular += irradiance * F * ggx(NdotH, rough) * visibility(NdotL, NdotV, rough);
        if (coat > 0.0) {
            float cr = clamp(uClearcoatRoughness, 0.04, 1.0);
            specular += irradiance * coat * schlick(vec3(0.04), max(dot(V, H), 0.0))
                * ggx(NdotH, cr) * visibility(NdotL, NdotV, cr);
        }
    }

    if (!uDiffuseOnly) {
        float env = uEnvStrength * uEnvIntensity;
        vec3 R = reflect(-V, N);
        vec3 F = schlick(f0, NdotV);
        color += diffuseColor * studio(N, 1.0) * env * 0.25;
        specular += studio(R, rough) * F * env * (1.0 - rough * 0.7);
        if (coat > 0.0) {
            specular += studio(R, uClearcoatRoughness) * coat * schlick(vec3(0.04), NdotV) * env;
        }
    }

    color += specular;

    vec3 emissive = uEmissive * uEmissiveIntensity;
    if (uHasEmissiveMap) {
        emissive *= texture(uEmissiveMap, vUV).rgb;
    }
    color += emissive;

    // Reflections keep transparent surfaces visible where light hits them.
    float specAlpha = clamp(max(max(specular.r, specular.g), specular.b), 0.0, 1.0);
    FragColor = vec4(color, max(alpha, specAlpha * alpha));
}
`

const postVertexShader = `
#version 410 core

out vec2 vUV;

void main() {
    vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    vUV = pos;
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
`

const postFragmentShader = `
#version 410 core

in vec2 vUV;

uniform sampler2D uScene;
uniform float uContrast;

out vec4 FragColor;

vec3 encodeSRGB(vec3 c) {
    c = clamp(c, 0.0, 1.0);
    return mix(c * 12.92, 1.055 * pow(c, vec3(1.0 / 2.4)) - 0.055, step(0.0031308, c));
}

void main() {
    vec3 color = encodeSRGB(texture(uScene, vUV).rgb);
    color = (color - 0.5) * uContrast + 0.5;
    FragColor = vec4(clamp(color, 0.0, 1.0), 1.0);
}
`

const lineVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPosition;

uniform mat4 uViewProjection;

void main() {
    gl_Position = uViewProjection * vec4(aPosition, 1.0);
}
`

const lineFragmentShader = `
#version 410 core

uniform vec3 uColor;

out vec4 FragColor;

void main() {
    FragColor = vec4(uColor, 1.0);
}
`
