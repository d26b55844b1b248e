// Package lp 实现基于单纯形表的线性规划求解。
//
// 输入为文本形式的目标函数（如 "3 + 5"，按变量顺序给出系数）和按行分隔的约束（如 "2 + 1 <= 8"），
// 解析为系数向量后构建单纯形表，按最负检验数选入基列、按最小比值选出基行并做 Gauss-Jordan 转轴，
// 直到目标行检验数全部非负或判定问题无界。每一步的单纯形表都会作为快照记录在 Report 中。
//
// ">=" 约束通过整行取反转换为 "<=" 形式，不引入人工变量，因此初始基可能不可行；
// "<" 与 ">" 按非严格不等式处理。
package lp
