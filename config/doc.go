// Package config 提供生成管线的配置加载。
//
// 配置来自三层，优先级从低到高：内置默认值、YAML 文件、MATHGEN_
// 前缀的环境变量。结构体字段通过 env tag 反射映射到环境变量名。
package config
