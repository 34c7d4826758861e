package model

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// 相似度矩阵文件格式：
//
//	magic "CSIM" | uint32 dim | dim*dim float32（小端、行优先）
//
// 矩阵对称，matrix[i][j] 为片库第 i 行与第 j 行的相似度。
const simMagic = "CSIM"

const simHeaderSize = 8

// SimilarityMatrix 是文件驻留的物品相似度矩阵。
// 只在打开时校验头部与文件尺寸，行数据按需 ReadAt 换页，
// 不会整块载入内存。只读，无任何变更操作；ReadAt 天然并发安全。
type SimilarityMatrix struct {
	f   *os.File
	dim int
}

// OpenSimilarityMatrix 打开并校验矩阵文件。
func OpenSimilarityMatrix(path string) (*SimilarityMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open similarity matrix: %w", err)
	}

	header := make([]byte, simHeaderSize)
	if _, err := f.ReadAt(header, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("read similarity header: %w", err)
	}
	if string(header[:4]) != simMagic {
		f.Close()
		return nil, fmt.Errorf("similarity matrix: bad magic %q", header[:4])
	}
	dim := int(binary.LittleEndian.Uint32(header[4:]))
	if dim <= 0 {
		f.Close()
		return nil, fmt.Errorf("similarity matrix: bad dim %d", dim)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat similarity matrix: %w", err)
	}
	want := int64(simHeaderSize) + int64(dim)*int64(dim)*4
	if info.Size() != want {
		f.Close()
		return nil, fmt.Errorf("similarity matrix: size %d, want %d for dim %d", info.Size(), want, dim)
	}

	return &SimilarityMatrix{f: f, dim: dim}, nil
}

// Dim 返回矩阵维度（等于片库行数）。
func (m *SimilarityMatrix) Dim() int { return m.dim }

// Row 读取第 i 行的完整相似度向量。
func (m *SimilarityMatrix) Row(i int) ([]float32, error) {
	if i < 0 || i >= m.dim {
		return nil, fmt.Errorf("similarity row %d out of range [0,%d)", i, m.dim)
	}
	buf := make([]byte, m.dim*4)
	off := int64(simHeaderSize) + int64(i)*int64(m.dim)*4
	if _, err := m.f.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("read similarity row %d: %w", i, err)
	}
	row := make([]float32, m.dim)
	for j := range row {
		bits := binary.LittleEndian.Uint32(buf[j*4:])
		row[j] = math.Float32frombits(bits)
	}
	return row, nil
}

// Close 释放文件句柄。
func (m *SimilarityMatrix) Close() error { return m.f.Close() }

// WriteSimilarityMatrix 按上述格式写出矩阵（离线工具与测试使用）。
func WriteSimilarityMatrix(path string, rows [][]float32) error {
	dim := len(rows)
	if dim == 0 {
		return fmt.Errorf("empty similarity matrix")
	}
	buf := make([]byte, simHeaderSize+dim*dim*4)
	copy(buf, simMagic)
	binary.LittleEndian.PutUint32(buf[4:], uint32(dim))
	for i, row := range rows {
		if len(row) != dim {
			return fmt.Errorf("similarity row %d has %d cols, want %d", i, len(row), dim)
		}
		for j, v := range row {
			binary.LittleEndian.PutUint32(buf[simHeaderSize+(i*dim+j)*4:], math.Float32bits(v))
		}
	}
	return os.WriteFile(path, buf, 0o644)
}
